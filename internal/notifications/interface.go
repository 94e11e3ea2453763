package notifications

import "github.com/nookly/threadwatch/internal/models"

// Mailer delivers the daily digest. Fire-and-forget from the pipeline's
// perspective: a failure is logged by the caller, never retried by the core.
type Mailer interface {
	SendDigest(digest *models.Digest) error
}
