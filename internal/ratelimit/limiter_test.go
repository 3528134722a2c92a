package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRedisLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewLimiter(rdb, testLogger()), mr
}

func TestLimiter_NilRedis_FailOpen(t *testing.T) {
	l := NewLimiter(nil, testLogger())
	for i := 0; i < 100; i++ {
		result, err := l.Check(context.Background(), "ip:10.0.0.1", 10, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("expected allowed on check %d", i)
		}
		if result.Remaining != 9 {
			t.Errorf("expected remaining=9, got %d", result.Remaining)
		}
	}
}

func TestLimiter_Redis_EnforcesLimit(t *testing.T) {
	l, _ := newRedisLimiter(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		result, err := l.Check(ctx, "ip:10.0.0.1", 3, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if result.Remaining != 3-i {
			t.Errorf("request %d: expected remaining %d, got %d", i, 3-i, result.Remaining)
		}
	}

	result, err := l.Check(ctx, "ip:10.0.0.1", 3, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Allowed {
		t.Fatal("4th request should be denied")
	}
	if result.RetryAfter <= 0 || result.RetryAfter > time.Minute {
		t.Errorf("unexpected retry after %s", result.RetryAfter)
	}

	// Other clients have their own window
	other, _ := l.Check(ctx, "ip:10.0.0.2", 3, time.Minute)
	if !other.Allowed {
		t.Error("different client should be allowed")
	}
}

func TestLimiter_Redis_KeyExpires(t *testing.T) {
	l, mr := newRedisLimiter(t)
	ctx := context.Background()

	if _, err := l.Check(ctx, "ip:10.0.0.3", 1, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl := mr.TTL(keyPrefix + "ip:10.0.0.3"); ttl <= 0 {
		t.Errorf("expected key TTL to be set, got %s", ttl)
	}
}

func TestLimiter_Redis_Unavailable_FailOpen(t *testing.T) {
	l, mr := newRedisLimiter(t)
	mr.Close()

	result, err := l.Check(context.Background(), "ip:10.0.0.4", 1, time.Minute)
	if err == nil {
		t.Error("expected the redis error to be reported")
	}
	if !result.Allowed {
		t.Error("expected fail open when redis is down")
	}
}
