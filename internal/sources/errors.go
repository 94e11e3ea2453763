package sources

import "errors"

// Error kinds for forum fetch failures. Callers match with errors.Is.
var (
	// ErrRateLimited means the forum throttled us; retry next cycle.
	ErrRateLimited = errors.New("forum rate limited")
	// ErrTransient covers timeouts and server-side failures; retry next cycle.
	ErrTransient = errors.New("transient forum error")
	// ErrAuth means credentials were rejected; retrying will not help.
	ErrAuth = errors.New("forum authentication failed")
)

// IsTransient reports whether the error will plausibly clear on its own.
// Transient failures are retried on the next scheduled cycle, never in a
// tight loop within the same cycle.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}
