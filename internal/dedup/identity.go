// Package dedup tracks which thread identities have already been processed.
// The log is append-only and never expires: once a thread has produced a
// digest entry it must never produce another, even weeks later.
package dedup

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nookly/threadwatch/internal/storage"
	"github.com/sirupsen/logrus"
)

const logName = "identity.log"

// IdentityStore is a durable membership set keyed by thread ID. It is
// accessed only from the single pipeline worker, so IsNew followed by
// MarkSeen is atomic with respect to a polling cycle by construction.
type IdentityStore struct {
	backend storage.Backend
	seen    map[string]time.Time
}

// New loads the identity log from the backend. A missing log means a fresh
// deployment, not an error.
func New(backend storage.Backend) (*IdentityStore, error) {
	s := &IdentityStore{
		backend: backend,
		seen:    make(map[string]time.Time),
	}

	data, err := backend.Retrieve(logName)
	if errors.Is(err, storage.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load identity log: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id, ts, ok := strings.Cut(line, "\t")
		if !ok {
			// A crash mid-append can truncate the final line; skip it.
			logrus.Warnf("Skipping malformed identity log line: %q", line)
			continue
		}
		firstSeen, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			logrus.Warnf("Skipping identity entry %s with bad timestamp %q", id, ts)
			continue
		}
		s.seen[id] = firstSeen
	}

	logrus.Infof("Loaded %d known thread identities", len(s.seen))
	return s, nil
}

// IsNew reports whether the thread has never been processed.
func (s *IdentityStore) IsNew(threadID string) bool {
	_, ok := s.seen[threadID]
	return !ok
}

// MarkSeen records the identity durably. Entries are never updated or
// removed once written.
func (s *IdentityStore) MarkSeen(threadID string, firstSeen time.Time) error {
	if _, ok := s.seen[threadID]; ok {
		return nil
	}

	line := fmt.Sprintf("%s\t%s\n", threadID, firstSeen.UTC().Format(time.RFC3339))
	if err := s.backend.Append(logName, []byte(line)); err != nil {
		return fmt.Errorf("failed to record identity %s: %w", threadID, err)
	}

	s.seen[threadID] = firstSeen
	return nil
}

// Size returns the number of known identities.
func (s *IdentityStore) Size() int {
	return len(s.seen)
}
