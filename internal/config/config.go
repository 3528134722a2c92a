package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingAPIKey is returned by Validate when no Gemini credential is configured.
var ErrMissingAPIKey = errors.New("gemini api key is required (set GEMINI_API_KEY)")

// ErrTopicGateDisabled is returned by Validate when filter.topic.enabled is
// false. The DevOps allow-list is mandatory on every endpoint.
var ErrTopicGateDisabled = errors.New("filter.topic.enabled cannot be false: the DevOps topic gate is mandatory")

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Endpoints EndpointsConfig `yaml:"endpoints"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Auth      AuthConfig      `yaml:"auth"`
	Slack     SlackConfig     `yaml:"slack"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Filter    FilterConfig    `yaml:"filter"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// GeminiConfig configures the generative-language client. The API key is the
// only required setting; everything else has a usable default.
type GeminiConfig struct {
	APIKey         string               `yaml:"api_key"`
	BaseURL        string               `yaml:"base_url"`
	DefaultModel   string               `yaml:"default_model"`
	Timeout        time.Duration        `yaml:"timeout"`
	MaxIdleConns   int                  `yaml:"max_idle_conns"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryInterval time.Duration `yaml:"recovery_interval"`
}

// EndpointsConfig holds per-endpoint generation defaults.
type EndpointsConfig struct {
	Chat      GenerationConfig `yaml:"chat"`
	Ansible   GenerationConfig `yaml:"ansible"`
	Terraform GenerationConfig `yaml:"terraform"`
	Diagram   GenerationConfig `yaml:"diagram"`
}

type GenerationConfig struct {
	Temperature     float64 `yaml:"temperature"`
	TopP            float64 `yaml:"top_p"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	// MaxAttempts bounds the retry-until-non-empty loop. Values below 1 mean one attempt.
	MaxAttempts int `yaml:"max_attempts"`
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	PoolSize  int      `yaml:"pool_size"`
}

type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerWindow int64         `yaml:"requests_per_window"`
	Window            time.Duration `yaml:"window"`
}

// SlackConfig enables the Slack Events API and /shipsense slash command bridge.
type SlackConfig struct {
	Enabled       bool          `yaml:"enabled"`
	SigningSecret string        `yaml:"signing_secret"`
	BotToken      string        `yaml:"bot_token"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	// AnswerTimeout bounds generating and posting one reply.
	AnswerTimeout time.Duration `yaml:"answer_timeout"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// KeyHashes are SHA-256 hex digests of accepted API keys (see `shipsense keygen`).
	KeyHashes []string `yaml:"key_hashes"`
}

type TelemetryConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type FilterConfig struct {
	Topic     TopicFilterConfig     `yaml:"topic"`
	Secrets   SecretsFilterConfig   `yaml:"secrets"`
	Injection InjectionFilterConfig `yaml:"injection"`
	Policy    PolicyFilterConfig    `yaml:"policy"`
}

type TopicFilterConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Keywords []string `yaml:"keywords"`
	Refusal  string   `yaml:"refusal"`
}

type SecretsFilterConfig struct {
	Enabled bool `yaml:"enabled"`
}

type InjectionFilterConfig struct {
	Enabled        bool    `yaml:"enabled"`
	BlockThreshold float64 `yaml:"block_threshold"`
	FlagThreshold  float64 `yaml:"flag_threshold"`
}

type PolicyFilterConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BundlePath        string        `yaml:"bundle_path"`
	EvaluationTimeout time.Duration `yaml:"evaluation_timeout"`
}

// DefaultKeywords is the built-in DevOps topic allow-list.
var DefaultKeywords = []string{
	"ci", "cd", "cicd", "devops", "terraform", "ansible", "jenkins", "spinnaker",
	"argo", "argocd", "workflows", "events", "rollouts", "decsecops", "shell", "bash",
	"kubernetes", "helm",
}

// DefaultRefusal is returned for prompts outside the allow-list.
const DefaultRefusal = "Sorry, I can only assist with DevOps/CI/CD topics (Terraform, Ansible, Jenkins, Spinnaker, Argo, DecSecOps, Shell)."

// Validate checks settings the process cannot run without.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Gemini.BaseURL == "" {
		return fmt.Errorf("gemini.base_url must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if !c.Filter.Topic.Enabled {
		return ErrTopicGateDisabled
	}
	if c.Slack.Enabled && (c.Slack.SigningSecret == "" || c.Slack.BotToken == "") {
		return fmt.Errorf("slack requires signing_secret and bot_token (set SLACK_SIGNING_SECRET and SLACK_BOT_TOKEN)")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate_limit requires positive requests_per_window and window")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     180 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
		},
		Gemini: GeminiConfig{
			BaseURL:      "https://generativelanguage.googleapis.com/v1beta",
			DefaultModel: "gemini-2.5-pro",
			Timeout:      120 * time.Second,
			MaxIdleConns: 50,
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold: 5,
				RecoveryInterval: 15 * time.Second,
			},
		},
		Endpoints: EndpointsConfig{
			Chat:      GenerationConfig{Temperature: 0.4, TopP: 0.9, MaxOutputTokens: 2048, MaxAttempts: 1},
			Ansible:   GenerationConfig{Temperature: 0.3, MaxOutputTokens: 4096, MaxAttempts: 2},
			Terraform: GenerationConfig{Temperature: 0.3, MaxOutputTokens: 4096, MaxAttempts: 1},
			Diagram:   GenerationConfig{Temperature: 0.3, TopP: 0.9, MaxOutputTokens: 1024, MaxAttempts: 1},
		},
		Redis: RedisConfig{
			DB:       0,
			PoolSize: 20,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerWindow: 30,
			Window:            time.Minute,
		},
		Slack: SlackConfig{
			BaseURL:       "https://slack.com/api",
			Timeout:       10 * time.Second,
			AnswerTimeout: 3 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
		Filter: FilterConfig{
			Topic: TopicFilterConfig{
				Enabled:  true,
				Keywords: DefaultKeywords,
				Refusal:  DefaultRefusal,
			},
			Secrets: SecretsFilterConfig{Enabled: true},
			Injection: InjectionFilterConfig{
				Enabled:        true,
				BlockThreshold: 0.9,
				FlagThreshold:  0.7,
			},
			Policy: PolicyFilterConfig{
				Enabled:           false,
				BundlePath:        "/etc/shipsense/policies",
				EvaluationTimeout: 100 * time.Millisecond,
			},
		},
	}
}
