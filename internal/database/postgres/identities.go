package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/facematch"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// IdentityRepository provides PostgreSQL-backed identity storage.
type IdentityRepository struct {
	pool *Pool
}

var _ database.IdentityWriter = (*IdentityRepository)(nil)

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

const identityColumns = `id, display_name, email, descriptor, enrolled_at`

// ListAll returns every identity ordered by insertion sequence.
func (r *IdentityRepository) ListAll(ctx context.Context) ([]facematch.Identity, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	return scanIdentities(rows)
}

// FindByID retrieves an identity by ID, returns nil if not found.
func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*facematch.Identity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)

	identity, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return &identity, nil
}

// FindByName returns identities whose normalized name equals the normalized input.
// name_key holds facematch.NormalizePersonName of the display name, set on insert.
func (r *IdentityRepository) FindByName(ctx context.Context, name string) ([]facematch.Identity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE name_key = $1 ORDER BY seq`,
		facematch.NormalizePersonName(name),
	)
	if err != nil {
		return nil, fmt.Errorf("query identities by name: %w", err)
	}
	defer rows.Close()

	return scanIdentities(rows)
}

// Count returns the total number of identities.
func (r *IdentityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// Insert stores a new identity. Returns database.ErrDuplicateID on ID collision.
// Inserts are serialized by an advisory lock so that seq order, which defines
// enrollment order, matches commit order even across processes.
func (r *IdentityRepository) Insert(ctx context.Context, identity facematch.Identity) error {
	if len(identity.Descriptor) != constants.DescriptorDim {
		return fmt.Errorf("%w: column holds %d, got %d",
			database.ErrDimensionConflict, constants.DescriptorDim, len(identity.Descriptor))
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", enrollmentLockKey); err != nil {
		return fmt.Errorf("lock enrollment: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO identities (id, display_name, name_key, email, descriptor, enrolled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		identity.ID,
		identity.DisplayName,
		facematch.NormalizePersonName(identity.DisplayName),
		identity.Email,
		pgvector.NewVector(identity.Descriptor),
		identity.EnrolledAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", database.ErrDuplicateID, identity.ID)
		}
		return fmt.Errorf("insert identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit identity: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (facematch.Identity, error) {
	var identity facematch.Identity
	var vec pgvector.Vector
	if err := row.Scan(&identity.ID, &identity.DisplayName, &identity.Email, &vec, &identity.EnrolledAt); err != nil {
		return facematch.Identity{}, err //nolint:wrapcheck // callers wrap
	}
	identity.Descriptor = facematch.Descriptor(vec.Slice())
	return identity, nil
}

func scanIdentities(rows *sql.Rows) ([]facematch.Identity, error) {
	var identities []facematch.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return identities, nil
}
