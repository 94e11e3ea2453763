package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/nookly/threadwatch/internal/models"
	"github.com/nookly/threadwatch/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, maxPerTier int) (*TieredStore, storage.Backend) {
	t.Helper()
	backend, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	s, err := New(backend, maxPerTier)
	require.NoError(t, err)
	return s, backend
}

func record(id string, tier models.PriorityTier, score int, firstSeen time.Time) *models.ThreadRecord {
	return &models.ThreadRecord{
		ThreadID:       id,
		ForumName:      "specialed",
		Title:          "title " + id,
		RelevanceScore: score,
		PriorityTier:   tier,
		Status:         models.StatusPersisted,
		FirstSeenAt:    firstSeen,
		LastUpdatedAt:  firstSeen,
	}
}

func TestPersistAndGet(t *testing.T) {
	s, _ := newStore(t, 10)
	now := time.Now().UTC()

	require.NoError(t, s.Persist(record("reddit_a", models.TierHigh, 8, now)))

	got, err := s.Get(models.TierHigh, "reddit_a")
	require.NoError(t, err)
	assert.Equal(t, "reddit_a", got.ThreadID)
	assert.Equal(t, 8, got.RelevanceScore)
	assert.Equal(t, 1, s.Count(models.TierHigh))
}

func TestRejectedRecordsRefused(t *testing.T) {
	s, _ := newStore(t, 10)
	err := s.Persist(record("reddit_a", models.TierRejected, 2, time.Now()))
	assert.Error(t, err)
}

func TestCapacityEvictsOldestFirstSeen(t *testing.T) {
	s, _ := newStore(t, 2)
	base := time.Now().UTC()

	require.NoError(t, s.Persist(record("reddit_old", models.TierHigh, 9, base.Add(-3*time.Hour))))
	require.NoError(t, s.Persist(record("reddit_mid", models.TierHigh, 7, base.Add(-2*time.Hour))))
	require.NoError(t, s.Persist(record("reddit_new", models.TierHigh, 8, base.Add(-1*time.Hour))))

	assert.Equal(t, 2, s.Count(models.TierHigh))

	// The oldest goes regardless of its score.
	_, err := s.Get(models.TierHigh, "reddit_old")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.Get(models.TierHigh, "reddit_mid")
	assert.NoError(t, err)
	_, err = s.Get(models.TierHigh, "reddit_new")
	assert.NoError(t, err)
}

func TestTiersAreIsolated(t *testing.T) {
	s, _ := newStore(t, 1)
	now := time.Now().UTC()

	require.NoError(t, s.Persist(record("reddit_h", models.TierHigh, 9, now)))
	require.NoError(t, s.Persist(record("reddit_m", models.TierMedium, 6, now)))
	require.NoError(t, s.Persist(record("reddit_l", models.TierLow, 4, now)))

	// Each tier holds its one record; filling one never evicts from another.
	assert.Equal(t, 1, s.Count(models.TierHigh))
	assert.Equal(t, 1, s.Count(models.TierMedium))
	assert.Equal(t, 1, s.Count(models.TierLow))
}

func TestIndexRebuildsOnRestart(t *testing.T) {
	backend, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	s, err := New(backend, 10)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, s.Persist(record("reddit_a", models.TierHigh, 8, now)))
	require.NoError(t, s.Persist(record("reddit_b", models.TierMedium, 6, now)))

	reloaded, err := New(backend, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Count(models.TierHigh))
	assert.Equal(t, 1, reloaded.Count(models.TierMedium))

	got, err := reloaded.Get(models.TierHigh, "reddit_a")
	require.NoError(t, err)
	assert.Equal(t, "reddit_a", got.ThreadID)
}

func TestListWindowBoundsAndOrdering(t *testing.T) {
	s, _ := newStore(t, 10)
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Persist(record("reddit_before", models.TierHigh, 9, base.Add(-25*time.Hour))))
	require.NoError(t, s.Persist(record("reddit_low", models.TierHigh, 5, base.Add(-10*time.Hour))))
	require.NoError(t, s.Persist(record("reddit_top", models.TierHigh, 9, base.Add(-8*time.Hour))))
	require.NoError(t, s.Persist(record("reddit_at_end", models.TierHigh, 9, base)))

	out, err := s.ListWindow(models.TierHigh, base.Add(-24*time.Hour), base)
	require.NoError(t, err)

	// Window is [start, end): the day-old record and the end-boundary record
	// are both excluded. Ordering is score desc.
	require.Len(t, out, 2)
	assert.Equal(t, "reddit_top", out[0].ThreadID)
	assert.Equal(t, "reddit_low", out[1].ThreadID)
}

func TestListWindowBreaksScoreTiesByRecency(t *testing.T) {
	s, _ := newStore(t, 10)
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Persist(record("reddit_older", models.TierHigh, 7, base.Add(-6*time.Hour))))
	require.NoError(t, s.Persist(record("reddit_newer", models.TierHigh, 7, base.Add(-2*time.Hour))))

	out, err := s.ListWindow(models.TierHigh, base.Add(-24*time.Hour), base)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "reddit_newer", out[0].ThreadID)
	assert.Equal(t, "reddit_older", out[1].ThreadID)
}

func TestRepersistDoesNotDoubleCount(t *testing.T) {
	s, _ := newStore(t, 2)
	base := time.Now().UTC()

	// The same thread persisted twice, as after a crash between the persist
	// and the identity record.
	require.NoError(t, s.Persist(record("reddit_a", models.TierHigh, 8, base.Add(-3*time.Hour))))
	require.NoError(t, s.Persist(record("reddit_a", models.TierHigh, 8, base.Add(-3*time.Hour))))
	assert.Equal(t, 1, s.Count(models.TierHigh))

	// Capacity math stays honest: two more inserts evict only the genuinely
	// oldest record, and every surviving index entry still has its file.
	require.NoError(t, s.Persist(record("reddit_b", models.TierHigh, 7, base.Add(-2*time.Hour))))
	require.NoError(t, s.Persist(record("reddit_c", models.TierHigh, 6, base.Add(-1*time.Hour))))
	assert.Equal(t, 2, s.Count(models.TierHigh))

	_, err := s.Get(models.TierHigh, "reddit_a")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.Get(models.TierHigh, "reddit_b")
	assert.NoError(t, err)
	_, err = s.Get(models.TierHigh, "reddit_c")
	assert.NoError(t, err)
}

func TestUpdateRewritesInPlace(t *testing.T) {
	s, _ := newStore(t, 10)
	now := time.Now().UTC()

	rec := record("reddit_a", models.TierHigh, 8, now)
	require.NoError(t, s.Persist(rec))

	rec.DraftResponse = "a draft"
	rec.Status = models.StatusDrafted
	require.NoError(t, s.Update(rec))

	got, err := s.Get(models.TierHigh, "reddit_a")
	require.NoError(t, err)
	assert.Equal(t, "a draft", got.DraftResponse)
	assert.Equal(t, models.StatusDrafted, got.Status)
	assert.Equal(t, 1, s.Count(models.TierHigh))
}

func TestRecentReturnsNewestFirst(t *testing.T) {
	s, _ := newStore(t, 10)
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("reddit_%d", i)
		require.NoError(t, s.Persist(record(id, models.TierHigh, 6, base.Add(time.Duration(i)*time.Minute))))
	}

	out, err := s.Recent(models.TierHigh, 3)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "reddit_4", out[0].ThreadID)
	assert.Equal(t, "reddit_3", out[1].ThreadID)
	assert.Equal(t, "reddit_2", out[2].ThreadID)
}

func TestZeroCapacityRejected(t *testing.T) {
	backend, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	_, err = New(backend, 0)
	assert.Error(t, err)
}
