// Package registry owns enrolled identities and their reference descriptors.
package registry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/metrics"
)

// ErrInvalidIdentity is returned when enrollment metadata is unusable.
var ErrInvalidIdentity = errors.New("invalid identity")

// Registry enrolls identities into a store and answers lookups over them.
// It satisfies facematch.IdentityLister.
type Registry struct {
	store   database.IdentityWriter
	index   *database.IdentityIndex
	metric  facematch.Metric
	dim     int
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger
	metrics *metrics.Metrics

	// enrollMu keeps the store and the index in the same order.
	enrollMu sync.Mutex
}

type Option func(r *Registry)

// WithIndex enables HNSW-accelerated Nearest queries.
func WithIndex(idx *database.IdentityIndex) Option {
	return func(r *Registry) {
		r.index = idx
	}
}

func WithMetric(metric facematch.Metric) Option {
	return func(r *Registry) {
		r.metric = metric
	}
}

func WithDimension(dim int) Option {
	return func(r *Registry) {
		r.dim = dim
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) {
		r.newID = newID
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = mt
	}
}

// New creates a registry over store.
func New(store database.IdentityWriter, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		metric: facematch.DefaultMetric,
		dim:    constants.DescriptorDim,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Dimension returns the descriptor length accepted at enrollment.
func (r *Registry) Dimension() int {
	return r.dim
}

// IndexEnabled reports whether Nearest uses the HNSW index.
func (r *Registry) IndexEnabled() bool {
	return r.index != nil
}

// Enroll validates the descriptor and metadata, assigns a fresh ID and the
// current time, and appends the identity. Nothing is stored on failure.
func (r *Registry) Enroll(ctx context.Context, displayName, email string, descriptor facematch.Descriptor) (facematch.Identity, error) {
	if err := descriptor.Validate(r.dim); err != nil {
		r.metrics.IncrementEnrollment("rejected")
		return facematch.Identity{}, err //nolint:wrapcheck // already carries detail
	}
	name := facematch.CleanDisplayName(displayName)
	if name == "" {
		r.metrics.IncrementEnrollment("rejected")
		return facematch.Identity{}, fmt.Errorf("%w: display name is empty", ErrInvalidIdentity)
	}

	identity := facematch.Identity{
		ID:          r.newID(),
		DisplayName: name,
		Email:       facematch.CleanDisplayName(email),
		Descriptor:  descriptor.Clone(),
		EnrolledAt:  r.now().UTC(),
	}

	r.enrollMu.Lock()
	defer r.enrollMu.Unlock()

	if err := r.store.Insert(ctx, identity); err != nil {
		r.metrics.IncrementEnrollment("error")
		return facematch.Identity{}, fmt.Errorf("insert identity: %w", err)
	}
	if r.index != nil {
		r.index.Add(identity)
	}

	r.metrics.IncrementEnrollment("ok")
	if n, err := r.store.Count(ctx); err == nil {
		r.metrics.SetRegistrySize(n)
	}
	r.logger.InfoContext(ctx, "enrolled identity", "identity_id", identity.ID, "display_name", identity.DisplayName)

	return identity.Clone(), nil
}

// ListAll returns a snapshot of every identity in enrollment order.
func (r *Registry) ListAll(ctx context.Context) ([]facematch.Identity, error) {
	identities, err := r.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	return identities, nil
}

// FindByID returns the identity with the given ID, or nil when absent.
func (r *Registry) FindByID(ctx context.Context, id string) (*facematch.Identity, error) {
	identity, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find identity %s: %w", id, err)
	}
	return identity, nil
}

// FindByName returns identities whose display name matches ignoring case,
// diacritics and dashes.
func (r *Registry) FindByName(ctx context.Context, name string) ([]facematch.Identity, error) {
	identities, err := r.store.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find identities by name: %w", err)
	}
	return identities, nil
}

// Count returns the number of enrolled identities.
func (r *Registry) Count(ctx context.Context) (int, error) {
	n, err := r.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return n, nil
}

// Nearest returns up to k identities ranked by descending similarity to probe.
// k outside [1, MaxNearestK] is clamped. Scores are always computed with the
// exact metric; the index only preselects candidates.
func (r *Registry) Nearest(ctx context.Context, probe facematch.Descriptor, k int) ([]facematch.Candidate, error) {
	if err := probe.Validate(r.dim); err != nil {
		return nil, err //nolint:wrapcheck // already carries detail
	}
	k = clampK(k)

	var identities []facematch.Identity
	if r.index != nil && !r.index.IsEmpty() {
		found, err := r.indexCandidates(ctx, probe, k)
		if err != nil {
			r.logger.WarnContext(ctx, "index search failed, falling back to full scan", "error", err)
		} else {
			identities = found
		}
	}
	if identities == nil {
		all, err := r.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		identities = all
	}

	candidates := make([]facematch.Candidate, 0, len(identities))
	for i := range identities {
		score, err := r.metric.Similarity(probe, identities[i].Descriptor)
		if err != nil {
			continue
		}
		candidates = append(candidates, facematch.Candidate{Identity: identities[i], Similarity: score})
	}

	// Stable sort keeps enrollment order among equal scores.
	slices.SortStableFunc(candidates, func(a, b facematch.Candidate) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func (r *Registry) indexCandidates(ctx context.Context, probe facematch.Descriptor, k int) ([]facematch.Identity, error) {
	ids, _, err := r.index.Search(probe, k*database.HNSWSearchMultiplier)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	identities := make([]facematch.Identity, 0, len(ids))
	for _, id := range ids {
		identity, err := r.store.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("find identity %s: %w", id, err)
		}
		if identity == nil {
			continue
		}
		identities = append(identities, *identity)
	}
	return identities, nil
}

func clampK(k int) int {
	if k <= 0 {
		return constants.DefaultNearestK
	}
	return min(k, constants.MaxNearestK)
}
