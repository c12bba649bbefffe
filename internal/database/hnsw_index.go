package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/facegate/internal/facematch"
)

// HNSWIndexMetadata stores metadata for validating cached HNSW indexes.
type HNSWIndexMetadata struct {
	IdentityCount int       `json:"identity_count"`
	Dim           int       `json:"dim"`
	BuildTime     time.Time `json:"build_time"`
	Version       int       `json:"version"`
}

const hnswMetadataVersion = 1

// ErrIndexNotInitialized is returned by Search before any identity was indexed.
var ErrIndexNotInitialized = errors.New("index not initialized")

// IdentityIndex wraps an HNSW graph over identity descriptors keyed by identity ID.
// It only narrows candidates; callers re-score hits with the exact metric.
type IdentityIndex struct {
	graph *hnsw.Graph[string]
	dim   int
	mu    sync.RWMutex
}

// NewIdentityIndex creates a new empty index.
func NewIdentityIndex() *IdentityIndex {
	return &IdentityIndex{}
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance
	return g
}

// Build replaces the index contents with the given identities.
// Identities whose descriptor length differs from the first one are skipped.
func (h *IdentityIndex) Build(identities []facematch.Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.graph = nil
	h.dim = 0
	for i := range identities {
		h.addLocked(identities[i].ID, identities[i].Descriptor)
	}
}

// Add indexes a single identity.
func (h *IdentityIndex) Add(identity facematch.Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.addLocked(identity.ID, identity.Descriptor)
}

func (h *IdentityIndex) addLocked(id string, d facematch.Descriptor) {
	if len(d) == 0 {
		return
	}
	if h.graph == nil {
		h.graph = newGraph()
		h.dim = len(d)
	}
	if len(d) != h.dim {
		return
	}
	h.graph.Add(hnsw.MakeNode(id, []float32(d.Clone())))
}

// Search returns up to k identity IDs nearest to the query with their Euclidean distances.
func (h *IdentityIndex) Search(query facematch.Descriptor, k int) ([]string, []float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil {
		return nil, nil, ErrIndexNotInitialized
	}
	if len(query) != h.dim {
		return nil, nil, fmt.Errorf("%w: index has %d, query has %d", facematch.ErrDimensionMismatch, h.dim, len(query))
	}

	neighbors := h.graph.Search([]float32(query), k)

	ids := make([]string, len(neighbors))
	distances := make([]float64, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.Key
		// Recompute with the exact metric instead of trusting the graph's float32 distance.
		dist, err := facematch.EuclideanDistance(query, n.Value)
		if err != nil {
			return nil, nil, err
		}
		distances[i] = dist
	}

	return ids, distances, nil
}

// Count returns the number of indexed identities.
func (h *IdentityIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.graph == nil {
		return 0
	}
	return h.graph.Len()
}

// IsEmpty returns true if the index has no graph data loaded.
func (h *IdentityIndex) IsEmpty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph == nil
}

// SaveWithMetadata persists the graph to path and metadata to path+".meta".
func (h *IdentityIndex) SaveWithMetadata(path string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil {
		// Remove existing files if index is empty (best-effort cleanup).
		_ = os.Remove(path)
		_ = os.Remove(path + ".meta")
		return nil
	}

	f, err := os.Create(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to create HNSW index file: %w", err)
	}
	defer f.Close()

	if err := h.graph.Export(f); err != nil {
		return fmt.Errorf("failed to export HNSW graph: %w", err)
	}

	metadata := HNSWIndexMetadata{
		IdentityCount: h.graph.Len(),
		Dim:           h.dim,
		BuildTime:     time.Now(),
		Version:       hnswMetadataVersion,
	}
	metaData, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta", metaData, 0600); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// LoadHNSWMetadata loads metadata from a separate .meta file.
func LoadHNSWMetadata(path string) (HNSWIndexMetadata, error) {
	var metadata HNSWIndexMetadata

	data, err := os.ReadFile(path + ".meta") //nolint:gosec // path is from trusted config
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata file: %w", err)
	}
	if err := json.Unmarshal(data, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if metadata.Version != hnswMetadataVersion {
		return metadata, fmt.Errorf("unsupported metadata version %d", metadata.Version)
	}

	return metadata, nil
}

// Load replaces the index with a graph previously written by SaveWithMetadata.
func (h *IdentityIndex) Load(path string) error {
	metadata, err := LoadHNSWMetadata(path)
	if err != nil {
		return err
	}

	saved, err := hnsw.LoadSavedGraph[string](path)
	if err != nil {
		return fmt.Errorf("failed to load HNSW index: %w", err)
	}
	saved.Distance = hnsw.EuclideanDistance

	h.mu.Lock()
	defer h.mu.Unlock()
	h.graph = saved.Graph
	h.dim = metadata.Dim
	return nil
}
