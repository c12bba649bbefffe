package database

import (
	"context"

	"github.com/kozaktomas/facegate/internal/facematch"
)

// IdentityReader provides read-only access to enrolled identities
type IdentityReader interface {
	// ListAll returns every identity in enrollment order
	ListAll(ctx context.Context) ([]facematch.Identity, error)
	// FindByID retrieves an identity by ID, returns nil if not found
	FindByID(ctx context.Context, id string) (*facematch.Identity, error)
	// FindByName returns identities whose display name matches after normalization
	// (lowercase, no diacritics, dashes to spaces), so "jan-novak" matches "Jan Novák".
	FindByName(ctx context.Context, name string) ([]facematch.Identity, error)
	// Count returns the total number of identities stored
	Count(ctx context.Context) (int, error)
}

// IdentityWriter provides write access to the identity store
type IdentityWriter interface {
	IdentityReader

	// Insert appends an identity. Returns ErrDuplicateID if the ID is already taken.
	Insert(ctx context.Context, identity facematch.Identity) error
}

// Closer is implemented by stores holding external resources
type Closer interface {
	Close() error
}
