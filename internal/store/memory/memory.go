// Package memory implements store.IdentityStore in process memory. It is
// the default when no database is configured; profiles are lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/alfredjeanlab/secretary/internal/model"
	"github.com/alfredjeanlab/secretary/internal/store"
)

// Store keeps copies of saved profiles keyed by sender ID.
type Store struct {
	mu      sync.RWMutex
	records map[string]model.SenderIdentity
}

var _ store.IdentityStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{records: make(map[string]model.SenderIdentity)}
}

// SaveIdentity stores a copy of identity. Nil or ID-less profiles are ignored.
func (s *Store) SaveIdentity(_ context.Context, identity *model.SenderIdentity) error {
	if identity == nil || identity.ID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[identity.ID] = *identity
	return nil
}

// GetIdentity returns a copy of the stored profile, or nil.
func (s *Store) GetIdentity(_ context.Context, id string) (*model.SenderIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// ListIdentities returns copies of all profiles sorted by ID.
func (s *Store) ListIdentities(_ context.Context) ([]*model.SenderIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.SenderIdentity, 0, len(s.records))
	for _, rec := range s.records {
		rec := rec
		out = append(out, &rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
