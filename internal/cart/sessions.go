package cart

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Sessions keeps one Store per live session. Concurrent first requests for the
// same session share a single load.
type Sessions struct {
	mu      sync.RWMutex
	stores  map[string]*Store
	storage Storage
	opts    []Option
	group   singleflight.Group
}

func NewSessions(storage Storage, opts ...Option) *Sessions {
	return &Sessions{
		stores:  make(map[string]*Store),
		storage: storage,
		opts:    opts,
	}
}

// Get returns the session's Store, opening it on first use. A Store whose
// snapshot failed to load is returned with the error but not registered, so the
// next request retries the load.
func (s *Sessions) Get(ctx context.Context, sessionID string) (*Store, error) {

	s.mu.RLock()
	store, ok := s.stores[sessionID]
	s.mu.RUnlock()

	if ok {
		return store, nil
	}

	type result struct {
		store *Store
		err   error
	}

	v, _, _ := s.group.Do(sessionID, func() (any, error) {

		store, err := Open(ctx, sessionID, s.storage, s.opts...)
		if err == nil {
			s.mu.Lock()
			if existing, ok := s.stores[sessionID]; ok {
				store = existing
			} else {
				s.stores[sessionID] = store
			}
			s.mu.Unlock()
		}

		return result{store: store, err: err}, nil
	})

	res := v.(result)

	return res.store, res.err
}

// Close tears the session's Store down. The persisted snapshot is left in place.
func (s *Sessions) Close(sessionID string) {

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.stores, sessionID)
}

func (s *Sessions) Len() int {

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.stores)
}
