package registry

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kozaktomas/facegate/internal/database"
)

// ErrIndexDisabled is returned by index maintenance calls on a registry built without WithIndex.
var ErrIndexDisabled = errors.New("HNSW index is not enabled")

// RebuildIndex replaces the index contents with the current store contents.
func (r *Registry) RebuildIndex(ctx context.Context) error {
	if r.index == nil {
		return ErrIndexDisabled
	}

	r.enrollMu.Lock()
	defer r.enrollMu.Unlock()

	identities, err := r.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list identities: %w", err)
	}
	r.index.Build(identities)
	r.metrics.SetRegistrySize(len(identities))
	r.logger.InfoContext(ctx, "rebuilt identity index", "identities", len(identities))
	return nil
}

// LoadIndex restores a saved index from path. A missing, unreadable or stale
// file (node count differs from the store) triggers a rebuild instead.
func (r *Registry) LoadIndex(ctx context.Context, path string) error {
	if r.index == nil {
		return ErrIndexDisabled
	}
	if path == "" {
		return r.RebuildIndex(ctx)
	}

	if _, err := os.Stat(path); err != nil {
		r.logger.InfoContext(ctx, "no saved identity index, rebuilding", "path", path)
		return r.RebuildIndex(ctx)
	}

	meta, err := database.LoadHNSWMetadata(path)
	if err != nil {
		r.logger.WarnContext(ctx, "unreadable index metadata, rebuilding", "path", path, "error", err)
		return r.RebuildIndex(ctx)
	}
	count, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if meta.IdentityCount != count || meta.Dim != r.dim {
		r.logger.InfoContext(ctx, "saved identity index is stale, rebuilding",
			"indexed", meta.IdentityCount, "stored", count)
		return r.RebuildIndex(ctx)
	}

	if err := r.index.Load(path); err != nil {
		r.logger.WarnContext(ctx, "failed to load identity index, rebuilding", "path", path, "error", err)
		return r.RebuildIndex(ctx)
	}
	r.metrics.SetRegistrySize(count)
	r.logger.InfoContext(ctx, "loaded identity index", "path", path, "identities", r.index.Count())
	return nil
}

// SaveIndex persists the index to path.
func (r *Registry) SaveIndex(path string) error {
	if r.index == nil {
		return ErrIndexDisabled
	}
	if err := r.index.SaveWithMetadata(path); err != nil {
		return fmt.Errorf("save identity index: %w", err)
	}
	return nil
}
