package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("TEST_VAR", "hello")
	defer os.Unsetenv("TEST_VAR")

	tests := []struct {
		input    string
		expected string
	}{
		{"${TEST_VAR}", "hello"},
		{"${TEST_VAR:default}", "hello"},
		{"${UNSET_VAR:fallback}", "fallback"},
		{"${UNSET_VAR}", ""},
		{"no vars here", "no vars here"},
		{"prefix-${TEST_VAR}-suffix", "prefix-hello-suffix"},
	}

	for _, tt := range tests {
		got := expandEnvVars(tt.input)
		if got != tt.expected {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestLoadFile_WithEnvVars(t *testing.T) {
	os.Setenv("TEST_GEMINI_KEY", "abc123")
	defer os.Unsetenv("TEST_GEMINI_KEY")

	path := filepath.Join(t.TempDir(), "test.yaml")
	content := `
server:
  host: "${TEST_HOST:127.0.0.1}"
  port: 9999
gemini:
  api_key: ${TEST_GEMINI_KEY}
  timeout: 45s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := LoadFile(path, cfg); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1 (default), got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Gemini.APIKey != "abc123" {
		t.Errorf("expected api key from env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Timeout != 45*time.Second {
		t.Errorf("expected timeout 45s, got %s", cfg.Gemini.Timeout)
	}
	// Untouched sections keep their defaults
	if cfg.Endpoints.Ansible.MaxAttempts != 2 {
		t.Errorf("expected ansible max_attempts 2, got %d", cfg.Endpoints.Ansible.MaxAttempts)
	}
	if len(cfg.Filter.Topic.Keywords) != len(DefaultKeywords) {
		t.Errorf("expected default keywords, got %v", cfg.Filter.Topic.Keywords)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	var cfg Config
	if err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}

	cfg.Gemini.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_TopicGateMandatory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gemini.APIKey = "key"
	cfg.Filter.Topic.Enabled = false
	if err := cfg.Validate(); !errors.Is(err, ErrTopicGateDisabled) {
		t.Fatalf("expected ErrTopicGateDisabled, got %v", err)
	}
}

func TestValidate_SlackCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gemini.APIKey = "key"
	cfg.Slack.Enabled = true
	cfg.Slack.BotToken = "xoxb-test"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for slack without signing secret")
	}
	cfg.Slack.SigningSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gemini.APIKey = "key"
	cfg.RateLimit.Window = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero rate limit window")
	}
	cfg.RateLimit.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled rate limit should not be validated: %v", err)
	}
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	content := `
gemini:
  api_key: "test-key"
filter:
  topic:
    keywords: ["gitops", "flux"]
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(dir, testLogger())
	if err := l.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	topic := l.Topic()
	if len(topic.Keywords) != 2 || topic.Keywords[0] != "gitops" {
		t.Errorf("expected overridden keywords, got %v", topic.Keywords)
	}
	if !topic.Enabled {
		t.Error("expected topic filter to stay enabled by default")
	}
	if topic.Refusal != DefaultRefusal {
		t.Errorf("expected default refusal, got %q", topic.Refusal)
	}
}

func TestLoader_Load_RefusesWithoutCredential(t *testing.T) {
	dir := t.TempDir()
	os.Unsetenv("GEMINI_API_KEY")
	content := `
gemini:
  api_key: ${GEMINI_API_KEY}
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(dir, testLogger())
	err := l.Load()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if l.Config() != nil {
		t.Error("config should not be set after failed load")
	}
}

func TestLoader_Load_RejectsDisabledTopicGate(t *testing.T) {
	dir := t.TempDir()
	content := `
gemini:
  api_key: "test-key"
filter:
  topic:
    enabled: false
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(dir, testLogger())
	if err := l.Load(); !errors.Is(err, ErrTopicGateDisabled) {
		t.Fatalf("expected ErrTopicGateDisabled, got %v", err)
	}
}
