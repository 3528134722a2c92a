package gemini

import (
	"context"
	"log/slog"

	"github.com/af-corp/shipsense/internal/types"
)

// TokenCounter counts tokens for a model.
type TokenCounter interface {
	CountTokens(ctx context.Context, model, text string) (int, error)
}

// Accountant produces best-effort token counts. Counting failures are logged
// and reported as zero.
type Accountant struct {
	counter TokenCounter
	logger  *slog.Logger
}

func NewAccountant(counter TokenCounter, logger *slog.Logger) *Accountant {
	return &Accountant{counter: counter, logger: logger}
}

// Count returns the token count of text, or 0 when it cannot be determined.
func (a *Accountant) Count(ctx context.Context, model, text string) int {
	n, err := a.counter.CountTokens(ctx, model, text)
	if err != nil {
		a.logger.Debug("token count unavailable", "model", model, "error", err)
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}

// Usage counts input and output text.
func (a *Accountant) Usage(ctx context.Context, model, input, output string) types.TokenCounts {
	return types.NewTokenCounts(a.Count(ctx, model, input), a.Count(ctx, model, output))
}
