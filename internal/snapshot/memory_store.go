package snapshot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/betversa/ev-engine/internal/models"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a process-local Store for development runs and tests
type MemoryStore struct {
	mu        sync.Mutex
	history   map[string][]models.Snapshot // oldest first
	retention Retention
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(retention Retention) *MemoryStore {
	return &MemoryStore{
		history:   make(map[string][]models.Snapshot),
		retention: retention,
		now:       time.Now,
	}
}

func (s *MemoryStore) Append(_ context.Context, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.append(snap)
	return nil
}

func (s *MemoryStore) Prune(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(identity)
	return nil
}

func (s *MemoryStore) Record(_ context.Context, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.append(snap)
	s.prune(snap.BetIdentity)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, identity string, limit int) ([]models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.history[identity]
	n := len(h)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]models.Snapshot, 0, n)
	for i := len(h) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h[i])
	}
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// append keeps the history sorted by capture time; equal times keep insertion order
func (s *MemoryStore) append(snap models.Snapshot) {
	h := s.history[snap.BetIdentity]
	i := sort.Search(len(h), func(i int) bool { return h[i].CapturedAt.After(snap.CapturedAt) })
	h = append(h, models.Snapshot{})
	copy(h[i+1:], h[i:])
	h[i] = snap
	s.history[snap.BetIdentity] = h
}

func (s *MemoryStore) prune(identity string) {
	h := s.history[identity]

	if cutoff, ok := s.retention.cutoff(s.now()); ok {
		start := sort.Search(len(h), func(i int) bool { return !h[i].CapturedAt.Before(cutoff) })
		h = h[start:]
	}
	if s.retention.MaxCount > 0 && len(h) > s.retention.MaxCount {
		h = h[len(h)-s.retention.MaxCount:]
	}

	if len(h) == 0 {
		delete(s.history, identity)
		return
	}
	s.history[identity] = append([]models.Snapshot(nil), h...)
}
