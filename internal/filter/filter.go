package filter

import (
	"context"
)

// Action represents the filter decision.
type Action string

const (
	ActionPass Action = "pass"
	ActionFlag Action = "flag"
	// ActionRefuse is a designed, user-visible refusal: the caller answers
	// with a fixed message instead of calling the model.
	ActionRefuse Action = "refuse"
	ActionBlock  Action = "block"
)

// Input is the text a filter inspects.
type Input struct {
	Endpoint string
	Model    string
	Text     string
}

// Result is returned by each filter.
type Result struct {
	Action     Action
	FilterName string
	Message    string
	Detections int
	Score      float64
}

// Stops reports whether the result ends the chain.
func (r Result) Stops() bool {
	return r.Action == ActionBlock || r.Action == ActionRefuse
}

// Filter is the interface all content filters implement.
type Filter interface {
	Name() string
	Enabled() bool
	Scan(ctx context.Context, in Input) Result
}

// Chain runs filters in order, stopping on the first Refuse or Block.
type Chain struct {
	filters []Filter
}

// NewChain creates a filter chain from the given filters.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Run executes all enabled filters in order. Returns all results and a pointer
// to the result that stopped the chain (nil if every filter let the text through).
func (c *Chain) Run(ctx context.Context, in Input) ([]Result, *Result) {
	var results []Result
	for _, f := range c.filters {
		if !f.Enabled() {
			continue
		}
		r := f.Scan(ctx, in)
		results = append(results, r)
		if r.Stops() {
			return results, &r
		}
	}
	return results, nil
}
