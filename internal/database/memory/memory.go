// Package memory provides an in-process identity store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/facematch"
)

// Store keeps identities in enrollment order. Stored elements are never
// modified and writers only append, so a slice header taken under the read
// lock stays a consistent snapshot after the lock is released.
type Store struct {
	mu         sync.RWMutex
	identities []facematch.Identity
	byID       map[string]int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

var _ database.IdentityWriter = (*Store)(nil)

// ListAll returns a copy of every identity in enrollment order.
func (s *Store) ListAll(ctx context.Context) ([]facematch.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	snapshot := s.identities
	s.mu.RUnlock()

	out := make([]facematch.Identity, len(snapshot))
	for i := range snapshot {
		out[i] = snapshot[i].Clone()
	}
	return out, nil
}

// FindByID returns the identity with the given ID or nil.
func (s *Store) FindByID(ctx context.Context, id string) (*facematch.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	identity := s.identities[idx].Clone()
	return &identity, nil
}

// FindByName returns identities whose normalized display name equals the normalized name.
func (s *Store) FindByName(ctx context.Context, name string) ([]facematch.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := facematch.NormalizePersonName(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []facematch.Identity
	for i := range s.identities {
		if facematch.NormalizePersonName(s.identities[i].DisplayName) == want {
			out = append(out, s.identities[i].Clone())
		}
	}
	return out, nil
}

// Count returns the number of stored identities.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.identities), nil
}

// Insert appends an identity. The identity is copied so later caller mutations
// have no effect on stored data.
func (s *Store) Insert(ctx context.Context, identity facematch.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[identity.ID]; ok {
		return fmt.Errorf("%w: %s", database.ErrDuplicateID, identity.ID)
	}
	if len(s.identities) > 0 && len(s.identities[0].Descriptor) != len(identity.Descriptor) {
		return fmt.Errorf("%w: stored %d, got %d",
			database.ErrDimensionConflict, len(s.identities[0].Descriptor), len(identity.Descriptor))
	}

	s.identities = append(s.identities, identity.Clone())
	s.byID[identity.ID] = len(s.identities) - 1
	return nil
}
