// Package topic implements the DevOps allow-list that gates every prompt
// before it reaches the model.
package topic

import (
	"context"
	"strings"

	"github.com/af-corp/shipsense/internal/config"
	"github.com/af-corp/shipsense/internal/filter"
)

// Filter refuses text that mentions none of the configured keywords.
type Filter struct {
	cfg func() config.TopicFilterConfig
}

// NewFilter creates a topic filter reading keywords from cfg on every call,
// so reloaded allow-lists apply to the next request.
func NewFilter(cfg func() config.TopicFilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

func (f *Filter) Name() string { return "topic" }

// Enabled is always true. Config validation rejects a disabled topic section,
// and the chain never skips the gate even if one slips through.
func (f *Filter) Enabled() bool { return true }

// Allowed reports whether text contains any allow-listed keyword, case-insensitively.
// Matching is plain substring containment, so "ci" also matches inside longer words.
func (f *Filter) Allowed(text string) bool {
	return Allowed(text, f.cfg().Keywords)
}

// Refusal returns the fixed message for rejected prompts.
func (f *Filter) Refusal() string {
	if msg := f.cfg().Refusal; msg != "" {
		return msg
	}
	return config.DefaultRefusal
}

// Scan implements filter.Filter.
func (f *Filter) Scan(_ context.Context, in filter.Input) filter.Result {
	if f.Allowed(in.Text) {
		return filter.Result{Action: filter.ActionPass, FilterName: "topic"}
	}
	return filter.Result{
		Action:     filter.ActionRefuse,
		FilterName: "topic",
		Message:    f.Refusal(),
	}
}

// Allowed is the stateless form of Filter.Allowed.
func Allowed(text string, keywords []string) bool {
	t := strings.ToLower(text)
	for _, k := range keywords {
		if k != "" && strings.Contains(t, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
