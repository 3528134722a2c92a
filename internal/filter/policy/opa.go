package policy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/af-corp/shipsense/internal/config"
	"github.com/af-corp/shipsense/internal/filter"
	"github.com/open-policy-agent/opa/rego"
)

const query = "[data.shipsense.policy.allow, data.shipsense.policy.reason]"

// Input is the document a policy sees as `input`.
type Input struct {
	Endpoint string    `json:"endpoint"`
	Model    string    `json:"model"`
	Text     string    `json:"text"`
	Length   int       `json:"length"`
	Time     InputTime `json:"time"`
}

type InputTime struct {
	Hour int    `json:"hour"`
	Day  string `json:"day"`
}

// Evaluator implements filter.Filter using OPA.
type Evaluator struct {
	mu       sync.RWMutex
	prepared *rego.PreparedEvalQuery
	cfg      func() config.PolicyFilterConfig
	logger   *slog.Logger
}

// NewEvaluator creates a policy evaluator. Call Load() to compile policies.
func NewEvaluator(cfg func() config.PolicyFilterConfig, logger *slog.Logger) *Evaluator {
	return &Evaluator{cfg: cfg, logger: logger}
}

func (e *Evaluator) Name() string  { return "policy" }
func (e *Evaluator) Enabled() bool { return e.cfg().Enabled }

// Load compiles Rego modules from the bundle path.
func (e *Evaluator) Load() error {
	cfg := e.cfg()
	modules, err := ReadBundle(cfg.BundlePath)
	if err != nil {
		return fmt.Errorf("read policy bundle: %w", err)
	}
	if len(modules) == 0 {
		e.logger.Warn("no rego files found", "path", cfg.BundlePath)
		return nil
	}
	if err := e.compile(modules); err != nil {
		return err
	}
	e.logger.Info("opa policies loaded", "modules", len(modules), "path", cfg.BundlePath)
	return nil
}

// LoadFromModules compiles policies from module sources keyed by file name.
func (e *Evaluator) LoadFromModules(sources map[string]string) error {
	return e.compile(modulesFrom(sources))
}

func (e *Evaluator) compile(modules []Module) error {
	opts := []func(*rego.Rego){rego.Query(query)}
	for _, m := range modules {
		opts = append(opts, rego.Module(m.Name, m.Source))
	}

	prepared, err := rego.New(opts...).PrepareForEval(context.Background())
	if err != nil {
		return fmt.Errorf("prepare rego: %w", err)
	}

	e.mu.Lock()
	e.prepared = &prepared
	e.mu.Unlock()
	return nil
}

// Evaluate runs the policy against the given input.
func (e *Evaluator) Evaluate(ctx context.Context, input Input) (bool, string, error) {
	e.mu.RLock()
	prepared := e.prepared
	e.mu.RUnlock()

	if prepared == nil {
		// Enabled without a policy: fail closed.
		return false, "no policies loaded", nil
	}

	timeout := e.cfg().EvaluationTimeout
	if timeout == 0 {
		timeout = 100 * time.Millisecond
	}
	evalCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := prepared.Eval(evalCtx, rego.EvalInput(input))
	if err != nil {
		return false, "", fmt.Errorf("evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, "no policy result", nil
	}

	arr, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok || len(arr) < 2 {
		return false, "unexpected policy result format", nil
	}
	allowed, _ := arr[0].(bool)
	reason, _ := arr[1].(string)
	return allowed, reason, nil
}

// Scan implements filter.Filter.
func (e *Evaluator) Scan(ctx context.Context, in filter.Input) filter.Result {
	now := time.Now().UTC()
	allowed, reason, err := e.Evaluate(ctx, Input{
		Endpoint: in.Endpoint,
		Model:    in.Model,
		Text:     in.Text,
		Length:   len(in.Text),
		Time:     InputTime{Hour: now.Hour(), Day: now.Weekday().String()},
	})
	if err != nil {
		e.logger.Error("policy evaluation failed", "error", err, "endpoint", in.Endpoint)
		return filter.Result{
			Action:     filter.ActionBlock,
			FilterName: "policy",
			Message:    "Policy evaluation failed",
		}
	}
	if !allowed {
		return filter.Result{
			Action:     filter.ActionBlock,
			FilterName: "policy",
			Message:    "Request denied by policy: " + reason,
		}
	}
	return filter.Result{Action: filter.ActionPass, FilterName: "policy"}
}
