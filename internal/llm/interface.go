// Package llm is the boundary to the hosted language-model text service.
// The pipeline treats it as best-effort: every caller has a deterministic
// fallback and never blocks on the service beyond its timeout.
package llm

import (
	"context"
	"errors"
)

// Error kinds for text-service failures. Callers match with errors.Is.
var (
	// ErrServiceUnavailable covers timeouts, throttling, and server errors.
	ErrServiceUnavailable = errors.New("text service unavailable")
	// ErrInvalidRequest means the request itself was malformed; retrying
	// the same input is pointless.
	ErrInvalidRequest = errors.New("text service rejected request")
)

// TextService is the narrow capability interface the pipeline consumes.
type TextService interface {
	// Rate returns a 1-10 relevance rating of text given some background
	// about what "relevant" means.
	Rate(ctx context.Context, text, background string) (int, error)
	// Complete generates free-form text from a prompt within a token budget.
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}
