// Package store persists accepted threads into priority-segmented
// collections. Each tier is independent: writing to one never touches
// another. Growth is bounded by a per-tier record cap with oldest-first
// eviction.
package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/nookly/threadwatch/internal/models"
	"github.com/nookly/threadwatch/internal/storage"
	"github.com/sirupsen/logrus"
)

const collectionPrefix = "threads/"

type indexEntry struct {
	threadID  string
	firstSeen time.Time
	score     int
}

// TieredStore keeps one durable collection per priority tier, with an
// in-memory index (rebuilt at startup) for eviction and window queries.
// Atomicity of individual writes is delegated to the storage backend.
type TieredStore struct {
	backend    storage.Backend
	maxPerTier int
	index      map[models.PriorityTier][]indexEntry
}

// New rebuilds the per-tier indexes from the backend.
func New(backend storage.Backend, maxPerTier int) (*TieredStore, error) {
	if maxPerTier <= 0 {
		return nil, fmt.Errorf("max records per tier must be positive")
	}

	s := &TieredStore{
		backend:    backend,
		maxPerTier: maxPerTier,
		index:      make(map[models.PriorityTier][]indexEntry),
	}

	for _, tier := range models.StoredTiers {
		names, err := backend.List(tierPrefix(tier))
		if err != nil {
			return nil, fmt.Errorf("failed to index tier %s: %w", tier, err)
		}
		for _, name := range names {
			rec, err := s.load(name)
			if err != nil {
				logrus.Warnf("Skipping unreadable record %s: %v", name, err)
				continue
			}
			s.index[tier] = append(s.index[tier], indexEntry{
				threadID:  rec.ThreadID,
				firstSeen: rec.FirstSeenAt,
				score:     rec.RelevanceScore,
			})
		}
		logrus.Debugf("Indexed %d records in tier %s", len(s.index[tier]), tier)
	}

	return s, nil
}

func tierPrefix(tier models.PriorityTier) string {
	return collectionPrefix + string(tier) + "/"
}

func recordName(tier models.PriorityTier, threadID string) string {
	return tierPrefix(tier) + threadID + ".json"
}

// Persist writes a newly accepted record into its tier's collection,
// evicting the oldest record first if the tier is at capacity. Rejected
// records are never persisted. Re-persisting an already-indexed thread
// (a crash can land between persist and identity recording) overwrites
// the record and refreshes its index entry without double-counting.
func (s *TieredStore) Persist(rec *models.ThreadRecord) error {
	tier := rec.PriorityTier
	if tier == models.TierRejected {
		return fmt.Errorf("refusing to persist rejected thread %s", rec.ThreadID)
	}

	if i := s.indexOf(tier, rec.ThreadID); i >= 0 {
		if err := s.write(rec); err != nil {
			return err
		}
		s.index[tier][i] = indexEntry{
			threadID:  rec.ThreadID,
			firstSeen: rec.FirstSeenAt,
			score:     rec.RelevanceScore,
		}
		return nil
	}

	for len(s.index[tier]) >= s.maxPerTier {
		if err := s.evictOldest(tier); err != nil {
			return err
		}
	}

	if err := s.write(rec); err != nil {
		return err
	}

	s.index[tier] = append(s.index[tier], indexEntry{
		threadID:  rec.ThreadID,
		firstSeen: rec.FirstSeenAt,
		score:     rec.RelevanceScore,
	})
	return nil
}

// Update rewrites an already-persisted record in place, e.g. after a draft
// is attached or the record is marked notified. The tier never changes.
func (s *TieredStore) Update(rec *models.ThreadRecord) error {
	return s.write(rec)
}

func (s *TieredStore) write(rec *models.ThreadRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal thread %s: %w", rec.ThreadID, err)
	}
	if err := s.backend.Store(recordName(rec.PriorityTier, rec.ThreadID), data); err != nil {
		return fmt.Errorf("failed to persist thread %s: %w", rec.ThreadID, err)
	}
	return nil
}

func (s *TieredStore) indexOf(tier models.PriorityTier, threadID string) int {
	for i, e := range s.index[tier] {
		if e.threadID == threadID {
			return i
		}
	}
	return -1
}

func (s *TieredStore) evictOldest(tier models.PriorityTier) error {
	entries := s.index[tier]
	if len(entries) == 0 {
		return fmt.Errorf("tier %s over capacity with empty index", tier)
	}

	oldest := 0
	for i, e := range entries {
		if e.firstSeen.Before(entries[oldest].firstSeen) {
			oldest = i
		}
	}

	victim := entries[oldest]
	if err := s.backend.Delete(recordName(tier, victim.threadID)); err != nil {
		return fmt.Errorf("failed to evict thread %s from tier %s: %w", victim.threadID, tier, err)
	}
	s.index[tier] = append(entries[:oldest], entries[oldest+1:]...)

	logrus.Infof("Evicted oldest thread %s from tier %s (capacity %d)", victim.threadID, tier, s.maxPerTier)
	return nil
}

func (s *TieredStore) load(name string) (*models.ThreadRecord, error) {
	data, err := s.backend.Retrieve(name)
	if err != nil {
		return nil, err
	}
	var rec models.ThreadRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return &rec, nil
}

// Get fetches one record by tier and thread ID.
func (s *TieredStore) Get(tier models.PriorityTier, threadID string) (*models.ThreadRecord, error) {
	return s.load(recordName(tier, threadID))
}

// ListWindow returns the tier's records whose FirstSeenAt falls in
// [start, end), ordered by relevance score descending, then FirstSeenAt
// descending, so digests have a stable ordering.
func (s *TieredStore) ListWindow(tier models.PriorityTier, start, end time.Time) ([]models.ThreadRecord, error) {
	var out []models.ThreadRecord
	for _, e := range s.index[tier] {
		if e.firstSeen.Before(start) || !e.firstSeen.Before(end) {
			continue
		}
		rec, err := s.load(recordName(tier, e.threadID))
		if err != nil {
			logrus.Warnf("Skipping unreadable record %s in tier %s: %v", e.threadID, tier, err)
			continue
		}
		out = append(out, *rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RelevanceScore != out[j].RelevanceScore {
			return out[i].RelevanceScore > out[j].RelevanceScore
		}
		return out[i].FirstSeenAt.After(out[j].FirstSeenAt)
	})
	return out, nil
}

// Recent returns up to limit most recently seen records in a tier,
// newest first. Used by the operator tooling, not the pipeline.
func (s *TieredStore) Recent(tier models.PriorityTier, limit int) ([]models.ThreadRecord, error) {
	entries := append([]indexEntry(nil), s.index[tier]...)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].firstSeen.After(entries[j].firstSeen)
	})

	var out []models.ThreadRecord
	for _, e := range entries {
		if limit > 0 && len(out) >= limit {
			break
		}
		rec, err := s.load(recordName(tier, e.threadID))
		if err != nil {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

// Count returns the number of records currently held in a tier.
func (s *TieredStore) Count(tier models.PriorityTier) int {
	return len(s.index[tier])
}
