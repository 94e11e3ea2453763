package models

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// PriorityTier classifies a thread for storage and drafting eligibility.
type PriorityTier string

const (
	TierHigh     PriorityTier = "high"
	TierMedium   PriorityTier = "medium"
	TierLow      PriorityTier = "low"
	TierRejected PriorityTier = "rejected"
)

// StoredTiers lists the tiers that own a durable collection, in digest order.
var StoredTiers = []PriorityTier{TierHigh, TierMedium, TierLow}

// TierClass is a forum's configured priority group. Forums in higher classes
// use lower score thresholds because those communities are inherently more
// valuable to us.
type TierClass string

const (
	ClassPrimary   TierClass = "primary"
	ClassSecondary TierClass = "secondary"
	ClassTertiary  TierClass = "tertiary"
)

// ClassOrder is the polling order within one cycle. Failures in later
// classes never block intake from earlier ones.
var ClassOrder = []TierClass{ClassPrimary, ClassSecondary, ClassTertiary}

// Status is the lifecycle tag of a ThreadRecord. Transitions only advance.
type Status string

const (
	StatusNew       Status = "new"
	StatusScored    Status = "scored"
	StatusPersisted Status = "persisted"
	StatusDrafted   Status = "drafted"
	StatusNotified  Status = "notified"
)

var statusRank = map[Status]int{
	StatusNew:       0,
	StatusScored:    1,
	StatusPersisted: 2,
	StatusDrafted:   3,
	StatusNotified:  4,
}

// Engagement holds the raw popularity signals reported by the forum.
type Engagement struct {
	Score        int       `json:"score"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// ThreadRecord is the canonical representation of one discussion thread as
// it moves through the pipeline. ThreadID is the stable identity assigned by
// the source forum and the unique key for deduplication. RelevanceScore and
// PriorityTier are set once by the scorer and never mutated afterwards.
type ThreadRecord struct {
	ThreadID       string       `json:"thread_id"`
	ForumName      string       `json:"forum_name"`
	Title          string       `json:"title"`
	BodyExcerpt    string       `json:"body_excerpt"`
	URL            string       `json:"url"`
	Author         string       `json:"author"`
	Engagement     Engagement   `json:"engagement"`
	RelevanceScore int          `json:"relevance_score"`
	PriorityTier   PriorityTier `json:"priority_tier"`
	DraftResponse  string       `json:"draft_response,omitempty"`
	Status         Status       `json:"status"`
	FirstSeenAt    time.Time    `json:"first_seen_at"`
	LastUpdatedAt  time.Time    `json:"last_updated_at"`
}

// AdvanceStatus moves the record to the next lifecycle stage. Backward or
// repeated transitions are rejected; drafting may be skipped, so any strictly
// later stage is a legal target.
func (r *ThreadRecord) AdvanceStatus(next Status, now time.Time) error {
	from, ok := statusRank[r.Status]
	if !ok {
		return fmt.Errorf("unknown status %q on thread %s", r.Status, r.ThreadID)
	}
	to, ok := statusRank[next]
	if !ok {
		return fmt.Errorf("unknown target status %q for thread %s", next, r.ThreadID)
	}
	if to <= from {
		return fmt.Errorf("status of thread %s cannot move %s -> %s", r.ThreadID, r.Status, next)
	}
	r.Status = next
	r.LastUpdatedAt = now
	return nil
}

// TruncateText shortens s to at most limit bytes, backing off to the
// nearest rune boundary so a multi-byte character is never split. A limit
// of zero or less means no truncation.
func TruncateText(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Candidate is a raw thread as returned by a forum gateway, before scoring.
type Candidate struct {
	ID           string
	Title        string
	Body         string
	Author       string
	URL          string
	Score        int
	CommentCount int
	CreatedAt    time.Time
}

// Digest is the once-daily summary handed to the mailer for human review.
type Digest struct {
	GeneratedAt time.Time                       `json:"generated_at"`
	WindowStart time.Time                       `json:"window_start"`
	WindowEnd   time.Time                       `json:"window_end"`
	Total       int                             `json:"total"`
	ByTier      map[PriorityTier][]ThreadRecord `json:"by_tier"`
}
