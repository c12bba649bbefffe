// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sync"

	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/database/memory"
	"github.com/kozaktomas/facegate/internal/facematch"
)

// MockIdentityStore is a mock implementation of database.IdentityWriter
// backed by an in-memory store, with per-method error injection.
type MockIdentityStore struct {
	store *memory.Store

	mu    sync.Mutex
	calls map[string]int

	// Error injection
	ListAllError    error
	FindByIDError   error
	FindByNameError error
	CountError      error
	InsertError     error
}

var _ database.IdentityWriter = (*MockIdentityStore)(nil)

// NewMockIdentityStore creates a new mock identity store
func NewMockIdentityStore() *MockIdentityStore {
	return &MockIdentityStore{
		store: memory.NewStore(),
		calls: make(map[string]int),
	}
}

// AddIdentity adds an identity to the mock store, bypassing error injection
func (m *MockIdentityStore) AddIdentity(identity facematch.Identity) error {
	return m.store.Insert(context.Background(), identity)
}

// Calls returns how many times the named method was invoked
func (m *MockIdentityStore) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockIdentityStore) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
}

// ListAll returns every identity in enrollment order
func (m *MockIdentityStore) ListAll(ctx context.Context) ([]facematch.Identity, error) {
	m.record("ListAll")
	if m.ListAllError != nil {
		return nil, m.ListAllError
	}
	return m.store.ListAll(ctx)
}

// FindByID retrieves an identity by ID
func (m *MockIdentityStore) FindByID(ctx context.Context, id string) (*facematch.Identity, error) {
	m.record("FindByID")
	if m.FindByIDError != nil {
		return nil, m.FindByIDError
	}
	return m.store.FindByID(ctx, id)
}

// FindByName returns identities matching the normalized name
func (m *MockIdentityStore) FindByName(ctx context.Context, name string) ([]facematch.Identity, error) {
	m.record("FindByName")
	if m.FindByNameError != nil {
		return nil, m.FindByNameError
	}
	return m.store.FindByName(ctx, name)
}

// Count returns the number of identities
func (m *MockIdentityStore) Count(ctx context.Context) (int, error) {
	m.record("Count")
	if m.CountError != nil {
		return 0, m.CountError
	}
	return m.store.Count(ctx)
}

// Insert stores an identity
func (m *MockIdentityStore) Insert(ctx context.Context, identity facematch.Identity) error {
	m.record("Insert")
	if m.InsertError != nil {
		return m.InsertError
	}
	return m.store.Insert(ctx, identity)
}
