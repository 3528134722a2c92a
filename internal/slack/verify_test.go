package slack

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestVerify(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{"type":"event_callback"}`)
	good := sign("s3cret", ts, body)

	tests := []struct {
		name      string
		secret    string
		timestamp string
		signature string
		body      []byte
		now       time.Time
		wantErr   bool
	}{
		{name: "valid", secret: "s3cret", timestamp: ts, signature: good, body: body, now: now},
		{name: "within skew", secret: "s3cret", timestamp: ts, signature: good, body: body, now: now.Add(4 * time.Minute)},
		{name: "stale", secret: "s3cret", timestamp: ts, signature: good, body: body, now: now.Add(6 * time.Minute), wantErr: true},
		{name: "from the future", secret: "s3cret", timestamp: ts, signature: good, body: body, now: now.Add(-6 * time.Minute), wantErr: true},
		{name: "tampered body", secret: "s3cret", timestamp: ts, signature: good, body: []byte(`{"type":"other"}`), now: now, wantErr: true},
		{name: "wrong secret", secret: "other", timestamp: ts, signature: good, body: body, now: now, wantErr: true},
		{name: "no secret configured", secret: "", timestamp: ts, signature: good, body: body, now: now, wantErr: true},
		{name: "missing signature", secret: "s3cret", timestamp: ts, body: body, now: now, wantErr: true},
		{name: "bad timestamp", secret: "s3cret", timestamp: "yesterday", signature: good, body: body, now: now, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.secret, tt.timestamp, tt.signature, tt.body, tt.now)
			if tt.wantErr && !errors.Is(err, ErrInvalidSignature) {
				t.Errorf("expected ErrInvalidSignature, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSign_Format(t *testing.T) {
	got := sign("s3cret", "1531420618", []byte("command=%2Fshipsense&text=helm"))
	if !strings.HasPrefix(got, "v0=") || len(got) != len("v0=")+64 {
		t.Errorf("unexpected signature shape %q", got)
	}
	if got == sign("s3cret", "1531420619", []byte("command=%2Fshipsense&text=helm")) {
		t.Error("signature must cover the timestamp")
	}
}
