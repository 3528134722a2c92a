package policy

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/af-corp/shipsense/internal/config"
	"github.com/af-corp/shipsense/internal/filter"
)

func testCfg() func() config.PolicyFilterConfig {
	return func() config.PolicyFilterConfig {
		return config.PolicyFilterConfig{
			Enabled:           true,
			EvaluationTimeout: 100 * time.Millisecond,
		}
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const defaultPolicy = `
package shipsense.policy

import rego.v1

default allow := true
default reason := ""

deny contains msg if {
	input.endpoint == "/terraform-generate"
	contains(lower(input.text), "destroy")
	msg := "destructive terraform requests are not allowed"
}

deny contains msg if {
	input.length > 4000
	msg := "prompt too long"
}

allow := false if {
	count(deny) > 0
}

reason := concat("; ", deny) if {
	count(deny) > 0
}
`

func loadTestEvaluator(t *testing.T, policy string) *Evaluator {
	t.Helper()
	e := NewEvaluator(testCfg(), testLogger())
	if err := e.LoadFromModules(map[string]string{"test.rego": policy}); err != nil {
		t.Fatalf("failed to load policy: %v", err)
	}
	return e
}

func TestEvaluator_AllowByDefault(t *testing.T) {
	e := loadTestEvaluator(t, defaultPolicy)

	allowed, reason, err := e.Evaluate(context.Background(), Input{
		Endpoint: "/terraform-generate",
		Text:     "create an s3 bucket",
		Length:   19,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Errorf("expected allowed, got denied: %s", reason)
	}
}

func TestEvaluator_DenyByEndpoint(t *testing.T) {
	e := loadTestEvaluator(t, defaultPolicy)

	allowed, reason, err := e.Evaluate(context.Background(), Input{
		Endpoint: "/terraform-generate",
		Text:     "terraform to DESTROY all buckets",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("expected denied")
	}
	if reason != "destructive terraform requests are not allowed" {
		t.Errorf("unexpected reason %q", reason)
	}

	// Same text on /chat is fine
	allowed, _, _ = e.Evaluate(context.Background(), Input{Endpoint: "/chat", Text: "terraform destroy flags?"})
	if !allowed {
		t.Error("expected chat to be allowed")
	}
}

func TestEvaluator_NoPoliciesLoaded_FailClosed(t *testing.T) {
	e := NewEvaluator(testCfg(), testLogger())
	allowed, _, _ := e.Evaluate(context.Background(), Input{})
	if allowed {
		t.Error("expected denied when no policies loaded (fail closed)")
	}
}

func TestEvaluator_Scan(t *testing.T) {
	e := loadTestEvaluator(t, defaultPolicy)

	r := e.Scan(context.Background(), filter.Input{Endpoint: "/terraform-generate", Text: "destroy the vpc"})
	if r.Action != filter.ActionBlock {
		t.Fatalf("expected block, got %s", r.Action)
	}
	if r.FilterName != "policy" {
		t.Errorf("expected filter name 'policy', got %s", r.FilterName)
	}

	r = e.Scan(context.Background(), filter.Input{Endpoint: "/ansible-generate", Text: "install nginx"})
	if r.Action != filter.ActionPass {
		t.Errorf("expected pass, got %s: %s", r.Action, r.Message)
	}
}

func TestEvaluator_Disabled(t *testing.T) {
	e := NewEvaluator(func() config.PolicyFilterConfig {
		return config.PolicyFilterConfig{Enabled: false}
	}, testLogger())
	if e.Enabled() {
		t.Error("expected evaluator to be disabled")
	}
}

func TestEvaluator_LoadFromBundleDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "deny.rego"), []byte(`
package shipsense.policy

import rego.v1

allow := false
reason := "maintenance window"
`), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-rego files are ignored
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a policy"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewEvaluator(func() config.PolicyFilterConfig {
		return config.PolicyFilterConfig{Enabled: true, BundlePath: dir}
	}, testLogger())
	if err := e.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	allowed, reason, err := e.Evaluate(context.Background(), Input{Endpoint: "/chat"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed || reason != "maintenance window" {
		t.Errorf("expected deny with reason, got allowed=%v reason=%q", allowed, reason)
	}
}

func TestEvaluator_InvalidPolicy(t *testing.T) {
	e := NewEvaluator(testCfg(), testLogger())
	if err := e.LoadFromModules(map[string]string{"bad.rego": "package shipsense.policy\nallow := "}); err == nil {
		t.Fatal("expected compile error")
	}
}
