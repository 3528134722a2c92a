package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/af-corp/shipsense/internal/config"
	"github.com/af-corp/shipsense/internal/filter"
)

// Detection represents a detected secret in text.
type Detection struct {
	PatternName string
	Start       int // byte offset
	End         int // byte offset
}

// Scanner blocks prompts that carry live credentials, so they are never
// forwarded to the external model.
type Scanner struct {
	patterns []Pattern
	cfg      func() config.SecretsFilterConfig
}

// NewScanner creates a scanner with the default secret patterns.
func NewScanner(cfg func() config.SecretsFilterConfig) *Scanner {
	return &Scanner{patterns: DefaultPatterns(), cfg: cfg}
}

func (s *Scanner) Name() string  { return "secrets" }
func (s *Scanner) Enabled() bool { return s.cfg().Enabled }

// Detect returns every pattern match in text.
func (s *Scanner) Detect(text string) []Detection {
	var detections []Detection
	for _, p := range s.patterns {
		for _, loc := range p.Regex.FindAllStringSubmatchIndex(text, -1) {
			if g := p.SecretGroup; g > 0 && 2*g+1 < len(loc) && loc[2*g] >= 0 &&
				isPlaceholder(text[loc[2*g]:loc[2*g+1]]) {
				continue
			}
			detections = append(detections, Detection{
				PatternName: p.Name,
				Start:       loc[0],
				End:         loc[1],
			})
		}
	}
	return detections
}

// Scan implements filter.Filter.
func (s *Scanner) Scan(_ context.Context, in filter.Input) filter.Result {
	detections := s.Detect(in.Text)
	if len(detections) == 0 {
		return filter.Result{Action: filter.ActionPass, FilterName: "secrets"}
	}

	seen := map[string]bool{}
	var kinds []string
	for _, d := range detections {
		if !seen[d.PatternName] {
			seen[d.PatternName] = true
			kinds = append(kinds, d.PatternName)
		}
	}
	return filter.Result{
		Action:     filter.ActionBlock,
		FilterName: "secrets",
		Message:    fmt.Sprintf("Request blocked: prompt contains credentials (%s). Remove them and try again.", strings.Join(kinds, ", ")),
		Detections: len(detections),
	}
}
