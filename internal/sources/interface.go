package sources

import (
	"context"

	"github.com/nookly/threadwatch/internal/models"
)

// Gateway is the read-only boundary to a discussion forum. Implementations
// are pure queries: no state beyond auth tokens, no side effects on the
// forum.
type Gateway interface {
	Name() string
	// FetchRecent returns the newest candidate threads in a forum that meet
	// the minimum engagement floor. Failures carry one of the error kinds in
	// errors.go so the caller can tell transient throttling from dead
	// credentials.
	FetchRecent(ctx context.Context, forum string, minScore, minComments int) ([]models.Candidate, error)
	IsEnabled() bool
}
