// Package retry runs an operation a bounded number of times until its result
// is acceptable.
package retry

import "context"

// Policy bounds the number of attempts. MaxAttempts below 1 means one attempt.
type Policy struct {
	MaxAttempts int
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Outcome reports the last result and how many attempts were made.
type Outcome[T any] struct {
	Value    T
	Err      error
	Attempts int
	// Accepted is false when every attempt was rejected.
	Accepted bool
}

// Do calls fn until accept returns true or the attempts run out. A canceled
// context stops the loop before the next attempt.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error), accept func(T, error) bool) Outcome[T] {
	var out Outcome[T]
	for attempt := 1; attempt <= p.attempts(); attempt++ {
		if attempt > 1 && ctx.Err() != nil {
			out.Err = ctx.Err()
			return out
		}
		out.Value, out.Err = fn(ctx, attempt)
		out.Attempts = attempt
		if accept(out.Value, out.Err) {
			out.Accepted = true
			return out
		}
	}
	return out
}

// NonEmpty accepts a non-empty string produced without error.
func NonEmpty(s string, err error) bool {
	return err == nil && s != ""
}
