package overlay

import (
	"context"
	"sync/atomic"

	"github.com/couchcryptid/sterileloop/internal/domain"
)

// Store holds the most recently published snapshot. Readers never block writers.
type Store struct {
	current atomic.Pointer[domain.Snapshot]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Publish replaces the current snapshot. It satisfies the pipeline's Loader port.
func (s *Store) Publish(_ context.Context, snap domain.Snapshot) error {
	s.current.Store(&snap)
	return nil
}

// Current returns the latest snapshot, or false before the first publish.
func (s *Store) Current() (domain.Snapshot, bool) {
	p := s.current.Load()
	if p == nil {
		return domain.Snapshot{}, false
	}
	return *p, true
}

// Name identifies the store as a publishing sink.
func (s *Store) Name() string { return "store" }
