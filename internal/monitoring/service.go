// Package monitoring drives the intake pipeline: poll forums, deduplicate,
// score, persist, draft, and assemble the daily digest. Everything runs on
// one logical worker; a cycle and a digest never overlap.
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nookly/threadwatch/internal/config"
	"github.com/nookly/threadwatch/internal/dedup"
	"github.com/nookly/threadwatch/internal/drafting"
	"github.com/nookly/threadwatch/internal/models"
	"github.com/nookly/threadwatch/internal/notifications"
	"github.com/nookly/threadwatch/internal/scoring"
	"github.com/nookly/threadwatch/internal/sources"
	"github.com/nookly/threadwatch/internal/storage"
	"github.com/nookly/threadwatch/internal/store"
	"github.com/sirupsen/logrus"
)

// State names the pipeline's current phase, exposed through metrics.
type State string

const (
	StateIdle       State = "idle"
	StatePolling    State = "polling"
	StateScoring    State = "scoring"
	StatePersisting State = "persisting"
	StateDrafting   State = "drafting"
	StateDigesting  State = "digesting"
)

const (
	digestMarkerName = "digest/last_sent"
	digestWindow     = 24 * time.Hour
	cycleTimeout     = 20 * time.Minute
)

// Metrics summarizes pipeline activity for the status endpoints.
type Metrics struct {
	State             State          `json:"state"`
	LastCycle         time.Time      `json:"last_cycle"`
	LastCycleDuration string         `json:"last_cycle_duration"`
	CandidatesSeen    int            `json:"candidates_seen"`
	AcceptedByTier    map[string]int `json:"accepted_by_tier"`
	Rejected          int            `json:"rejected"`
	Duplicates        int            `json:"duplicates"`
	ErrorCount        int            `json:"error_count"`
	KnownIdentities   int            `json:"known_identities"`
	LastDigest        time.Time      `json:"last_digest"`
}

// Service orchestrates one polling cycle plus the once-daily digest.
type Service struct {
	cfg      *config.Config
	gateway  sources.Gateway
	scorer   *scoring.Scorer
	identity *dedup.IdentityStore
	threads  *store.TieredStore
	drafter  *drafting.Drafter
	mailer   notifications.Mailer
	backend  storage.Backend

	now func() time.Time

	runMu   sync.Mutex // single-flight guard for Tick
	metMu   sync.RWMutex
	metrics Metrics
}

// NewService wires the pipeline. drafter and mailer may be nil; the
// corresponding steps are then skipped.
func NewService(
	cfg *config.Config,
	gateway sources.Gateway,
	scorer *scoring.Scorer,
	identity *dedup.IdentityStore,
	threads *store.TieredStore,
	drafter *drafting.Drafter,
	mailer notifications.Mailer,
	backend storage.Backend,
) *Service {
	return &Service{
		cfg:      cfg,
		gateway:  gateway,
		scorer:   scorer,
		identity: identity,
		threads:  threads,
		drafter:  drafter,
		mailer:   mailer,
		backend:  backend,
		now:      time.Now,
		metrics: Metrics{
			State:          StateIdle,
			AcceptedByTier: make(map[string]int),
		},
	}
}

// Tick runs one polling cycle and, if the daily send time has passed, the
// digest. The digest always runs after the cycle completes, so it lands on
// an idle boundary. Overlapping ticks are skipped, which keeps the
// check-and-record of the deduplicator atomic without any further locking.
func (s *Service) Tick() error {
	if !s.runMu.TryLock() {
		logrus.Warn("Previous tick still running, skipping this one")
		return nil
	}
	defer s.runMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	s.runCycle(ctx)

	if due, day := s.digestDue(); due {
		if err := s.runDigest(ctx, day); err != nil {
			logrus.Errorf("Digest assembly failed: %v", err)
			return err
		}
	}
	return nil
}

// runCycle polls every configured forum in tier-class order. A failure in
// one forum is logged and never blocks the rest of the cycle.
func (s *Service) runCycle(ctx context.Context) {
	start := s.now()
	logrus.Info("Starting polling cycle")
	s.setState(StatePolling)
	defer s.setState(StateIdle)

	cycle := cycleStats{acceptedByTier: make(map[string]int)}

	for _, class := range models.ClassOrder {
		for _, forum := range s.cfg.ForumsByClass(class) {
			if err := s.pollForum(ctx, forum.Name, &cycle); err != nil {
				cycle.errors++
				if errors.Is(err, sources.ErrAuth) {
					logrus.Errorf("Fatal auth error for forum %s, will not recover without new credentials: %v", forum.Name, err)
				} else {
					logrus.Warnf("Forum %s failed this cycle, retrying next cycle: %v", forum.Name, err)
				}
				continue
			}
		}
	}

	s.finishCycle(start, &cycle)
	logrus.Infof("Polling cycle completed in %v: %d candidates, %d new, %d rejected",
		time.Since(start), cycle.seen, accepted(cycle.acceptedByTier), cycle.rejected)
}

type cycleStats struct {
	seen           int
	duplicates     int
	rejected       int
	acceptedByTier map[string]int
	errors         int
}

// pollForum fetches one forum's candidates and runs each new thread through
// score -> persist -> draft -> record-seen.
func (s *Service) pollForum(ctx context.Context, forum string, stats *cycleStats) error {
	candidates, err := s.gateway.FetchRecent(ctx, forum, s.cfg.Fetch.MinScore, s.cfg.Fetch.MinComments)
	if err != nil {
		return err
	}

	for _, cand := range candidates {
		stats.seen++
		if !s.identity.IsNew(cand.ID) {
			stats.duplicates++
			continue
		}
		s.processCandidate(ctx, cand, forum, stats)
	}
	return nil
}

func (s *Service) processCandidate(ctx context.Context, cand models.Candidate, forum string, stats *cycleStats) {
	now := s.now()
	rec := &models.ThreadRecord{
		ThreadID:    cand.ID,
		ForumName:   forum,
		Title:       cand.Title,
		BodyExcerpt: excerpt(cand.Body, s.cfg.Storage.BodyExcerptLimit),
		URL:         cand.URL,
		Author:      cand.Author,
		Engagement: models.Engagement{
			Score:        cand.Score,
			CommentCount: cand.CommentCount,
			CreatedAt:    cand.CreatedAt,
		},
		Status:        models.StatusNew,
		FirstSeenAt:   now,
		LastUpdatedAt: now,
	}

	s.setState(StateScoring)
	score, tier := s.scorer.Score(ctx, cand, forum)
	rec.RelevanceScore = score
	rec.PriorityTier = tier
	if err := rec.AdvanceStatus(models.StatusScored, s.now()); err != nil {
		logrus.Errorf("Thread %s: %v", rec.ThreadID, err)
		return
	}

	if tier == models.TierRejected {
		stats.rejected++
		// Scoring is deterministic, so re-scoring a rejected thread would
		// change nothing; record it as seen and save the work next cycle.
		if err := s.identity.MarkSeen(rec.ThreadID, rec.FirstSeenAt); err != nil {
			logrus.Errorf("Failed to record rejected thread %s as seen: %v", rec.ThreadID, err)
		}
		return
	}

	s.setState(StatePersisting)
	if err := rec.AdvanceStatus(models.StatusPersisted, s.now()); err != nil {
		logrus.Errorf("Thread %s: %v", rec.ThreadID, err)
		return
	}
	if err := s.threads.Persist(rec); err != nil {
		// Identity is only recorded after a successful persist: the thread
		// stays re-derivable from the forum on the next cycle without ever
		// being duplicated.
		stats.errors++
		logrus.Errorf("Failed to persist thread %s, dropping from this cycle: %v", rec.ThreadID, err)
		return
	}
	stats.acceptedByTier[string(tier)]++

	if s.drafter != nil && drafting.Eligible(tier) {
		s.setState(StateDrafting)
		if draft, ok := s.drafter.Draft(ctx, rec); ok {
			rec.DraftResponse = draft
			if err := rec.AdvanceStatus(models.StatusDrafted, s.now()); err != nil {
				logrus.Errorf("Thread %s: %v", rec.ThreadID, err)
			} else if err := s.threads.Update(rec); err != nil {
				logrus.Warnf("Failed to store draft for thread %s: %v", rec.ThreadID, err)
			}
		}
	}

	if err := s.identity.MarkSeen(rec.ThreadID, rec.FirstSeenAt); err != nil {
		logrus.Errorf("Failed to record thread %s as seen, it may be re-processed: %v", rec.ThreadID, err)
	}

	logrus.Infof("Accepted thread %s from r/%s: score %d, tier %s", rec.ThreadID, forum, score, tier)
}

// digestDue reports whether today's digest still needs to go out: the wall
// clock has passed the configured send time and the persisted marker shows
// an older day. The marker survives restarts, so a crash after sending
// never causes a duplicate digest.
func (s *Service) digestDue() (bool, string) {
	now := s.now().In(s.cfg.Schedule.Location())
	hour, minute, err := s.cfg.Schedule.DigestClock()
	if err != nil {
		logrus.Errorf("Invalid digest time: %v", err)
		return false, ""
	}

	sendAt := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.Before(sendAt) {
		return false, ""
	}

	today := now.Format("2006-01-02")
	marker, err := s.backend.Retrieve(digestMarkerName)
	if err == nil && string(marker) == today {
		return false, ""
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logrus.Warnf("Cannot read digest marker, assuming digest is due: %v", err)
	}
	return true, today
}

// runDigest assembles the prior 24-hour window, sends it, and marks the
// included records notified. An empty window still sends so silence always
// means "not running", never "nothing found".
func (s *Service) runDigest(ctx context.Context, day string) error {
	s.setState(StateDigesting)
	defer s.setState(StateIdle)

	now := s.now()
	digest := &models.Digest{
		GeneratedAt: now,
		WindowStart: now.Add(-digestWindow),
		WindowEnd:   now,
		ByTier:      make(map[models.PriorityTier][]models.ThreadRecord),
	}

	for _, tier := range models.StoredTiers {
		records, err := s.threads.ListWindow(tier, digest.WindowStart, digest.WindowEnd)
		if err != nil {
			return fmt.Errorf("failed to read tier %s for digest: %w", tier, err)
		}
		var fresh []models.ThreadRecord
		for _, rec := range records {
			if rec.Status == models.StatusNotified {
				continue
			}
			fresh = append(fresh, rec)
		}
		digest.ByTier[tier] = fresh
		digest.Total += len(fresh)
	}

	logrus.Infof("Assembling digest for %s: %d threads", day, digest.Total)

	if s.mailer != nil {
		if err := s.mailer.SendDigest(digest); err != nil {
			// Mail is fire-and-forget: log, mark the day so we don't spam
			// retries, and leave the records un-notified.
			logrus.Errorf("Failed to send digest: %v", err)
			s.writeDigestMarker(day, now)
			return nil
		}
	}

	for _, tier := range models.StoredTiers {
		for i := range digest.ByTier[tier] {
			rec := digest.ByTier[tier][i]
			if err := rec.AdvanceStatus(models.StatusNotified, s.now()); err != nil {
				logrus.Errorf("Thread %s: %v", rec.ThreadID, err)
				continue
			}
			if err := s.threads.Update(&rec); err != nil {
				logrus.Warnf("Failed to mark thread %s notified: %v", rec.ThreadID, err)
			}
		}
	}

	s.writeDigestMarker(day, now)
	logrus.Infof("Digest for %s dispatched with %d threads", day, digest.Total)
	return nil
}

func (s *Service) writeDigestMarker(day string, now time.Time) {
	if err := s.backend.Store(digestMarkerName, []byte(day)); err != nil {
		logrus.Errorf("Failed to persist digest marker, digest may repeat after restart: %v", err)
	}
	s.metMu.Lock()
	s.metrics.LastDigest = now
	s.metMu.Unlock()
}

func (s *Service) setState(state State) {
	s.metMu.Lock()
	s.metrics.State = state
	s.metMu.Unlock()
}

func (s *Service) finishCycle(start time.Time, cycle *cycleStats) {
	s.metMu.Lock()
	defer s.metMu.Unlock()
	s.metrics.LastCycle = start
	s.metrics.LastCycleDuration = time.Since(start).String()
	s.metrics.CandidatesSeen += cycle.seen
	s.metrics.Duplicates += cycle.duplicates
	s.metrics.Rejected += cycle.rejected
	s.metrics.ErrorCount += cycle.errors
	for tier, n := range cycle.acceptedByTier {
		s.metrics.AcceptedByTier[tier] += n
	}
	s.metrics.KnownIdentities = s.identity.Size()
}

// GetMetrics returns current metrics as JSON for the status endpoints.
func (s *Service) GetMetrics() string {
	s.metMu.RLock()
	defer s.metMu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}

func excerpt(body string, limit int) string {
	return models.TruncateText(body, limit)
}

func accepted(byTier map[string]int) int {
	total := 0
	for _, n := range byTier {
		total += n
	}
	return total
}
