package registry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/database/memory"
	"github.com/kozaktomas/facegate/internal/database/mock"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/metrics"
)

func descriptor(seed uint64) facematch.Descriptor {
	r := rand.New(rand.NewPCG(seed, seed+1))
	d := make(facematch.Descriptor, 128)
	for i := range d {
		d[i] = r.Float32() - 0.5
	}
	return d
}

func TestEnroll(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	reg := New(memory.NewStore(), WithClock(func() time.Time { return fixed }))

	d := descriptor(1)
	identity, err := reg.Enroll(ctx, "  Jane   Smith ", "jane@example.com", d)
	require.NoError(t, err)

	_, err = uuid.Parse(identity.ID)
	require.NoError(t, err, "id should be a UUID")
	assert.Equal(t, "Jane Smith", identity.DisplayName)
	assert.Equal(t, "jane@example.com", identity.Email)
	assert.Equal(t, fixed, identity.EnrolledAt)
	assert.Equal(t, d, identity.Descriptor)

	got, err := reg.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, identity, *got)
}

func TestEnroll_UniqueIDs(t *testing.T) {
	ctx := context.Background()
	reg := New(memory.NewStore())

	seen := make(map[string]bool)
	for i := range 20 {
		identity, err := reg.Enroll(ctx, fmt.Sprintf("Person %d", i), "", descriptor(uint64(i)))
		require.NoError(t, err)
		assert.False(t, seen[identity.ID], "duplicate id %s", identity.ID)
		seen[identity.ID] = true
	}
}

func TestEnroll_CopiesDescriptor(t *testing.T) {
	ctx := context.Background()
	reg := New(memory.NewStore())

	d := descriptor(2)
	identity, err := reg.Enroll(ctx, "Alice", "", d)
	require.NoError(t, err)

	d[0] = 42
	identity.Descriptor[1] = 42

	got, err := reg.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.NotEqual(t, float32(42), got.Descriptor[0])
	assert.NotEqual(t, float32(42), got.Descriptor[1])
}

func TestEnroll_InvalidLeavesRegistryUnchanged(t *testing.T) {
	ctx := context.Background()
	reg := New(memory.NewStore())
	_, err := reg.Enroll(ctx, "Existing", "", descriptor(3))
	require.NoError(t, err)

	nan := descriptor(4)
	nan[10] = float32(math.NaN())
	inf := descriptor(5)
	inf[0] = float32(math.Inf(1))

	tests := []struct {
		name       string
		display    string
		descriptor facematch.Descriptor
		wantErr    error
	}{
		{"too short", "A", make(facematch.Descriptor, 127), facematch.ErrInvalidDescriptor},
		{"too long", "A", make(facematch.Descriptor, 129), facematch.ErrInvalidDescriptor},
		{"empty", "A", nil, facematch.ErrInvalidDescriptor},
		{"nan", "A", nan, facematch.ErrInvalidDescriptor},
		{"inf", "A", inf, facematch.ErrInvalidDescriptor},
		{"blank name", "   ", descriptor(6), ErrInvalidIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Enroll(ctx, tt.display, "", tt.descriptor)
			require.ErrorIs(t, err, tt.wantErr)

			n, err := reg.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestEnroll_StoreError(t *testing.T) {
	store := mock.NewMockIdentityStore()
	store.InsertError = errors.New("disk full")
	reg := New(store)

	_, err := reg.Enroll(context.Background(), "Alice", "", descriptor(7))
	require.ErrorIs(t, err, store.InsertError)
}

func TestEnroll_Metrics(t *testing.T) {
	mt := metrics.New(prometheus.NewRegistry())
	reg := New(memory.NewStore(), WithMetrics(mt))
	ctx := context.Background()

	_, _ = reg.Enroll(ctx, "Alice", "", descriptor(8))
	_, _ = reg.Enroll(ctx, "Bob", "", descriptor(9))
	_, _ = reg.Enroll(ctx, "Broken", "", nil)

	assert.InDelta(t, 2, testutil.ToFloat64(mt.Enrollments.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(mt.Enrollments.WithLabelValues("rejected")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(mt.RegistrySize), 0)
}

func TestListAll_EnrollmentOrder(t *testing.T) {
	ctx := context.Background()
	reg := New(memory.NewStore())

	names := []string{"John Doe", "Jane Smith", "Test User"}
	for i, name := range names {
		_, err := reg.Enroll(ctx, name, "", descriptor(uint64(10+i)))
		require.NoError(t, err)
	}

	all, err := reg.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, name := range names {
		assert.Equal(t, name, all[i].DisplayName)
	}
}

func TestListAll_StoreError(t *testing.T) {
	store := mock.NewMockIdentityStore()
	store.ListAllError = errors.New("connection reset")
	reg := New(store)

	_, err := reg.ListAll(context.Background())
	require.ErrorIs(t, err, store.ListAllError)
}

func TestFindByID_Absent(t *testing.T) {
	reg := New(memory.NewStore())
	got, err := reg.FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindByName(t *testing.T) {
	ctx := context.Background()
	reg := New(memory.NewStore())
	_, err := reg.Enroll(ctx, "Jan Novák", "", descriptor(20))
	require.NoError(t, err)

	got, err := reg.FindByName(ctx, "jan-novak")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jan Novák", got[0].DisplayName)
}

func TestRegistry_ConcurrentEnrollAndMatch(t *testing.T) {
	ctx := context.Background()
	reg := New(memory.NewStore())
	matcher := facematch.NewMatcher(reg)

	probe := descriptor(999)
	_, err := reg.Enroll(ctx, "Target", "", probe)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 25 {
				_, err := reg.Enroll(ctx, fmt.Sprintf("W%d-%d", w, i), "", descriptor(uint64(w*100+i)))
				assert.NoError(t, err)
			}
		}()
	}
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				result, err := matcher.FindBestMatch(ctx, probe, 0.99)
				assert.NoError(t, err)
				assert.True(t, result.Matched)
				for _, identity := range mustList(t, reg) {
					assert.Len(t, identity.Descriptor, 128)
				}
			}
		}()
	}
	wg.Wait()

	n, err := reg.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 101, n)
}

func mustList(t *testing.T, reg *Registry) []facematch.Identity {
	t.Helper()
	all, err := reg.ListAll(context.Background())
	if err != nil {
		t.Errorf("ListAll() error = %v", err)
	}
	return all
}

func TestNearest_ExactScan(t *testing.T) {
	ctx := context.Background()
	reg := New(memory.NewStore())

	probe := descriptor(30)
	far := probe.Clone()
	far[0] += 1.0 // similarity 0.5
	near := probe.Clone()
	near[0] += 0.2 // similarity 0.9

	_, err := reg.Enroll(ctx, "Far", "", far)
	require.NoError(t, err)
	_, err = reg.Enroll(ctx, "Exact", "", probe)
	require.NoError(t, err)
	_, err = reg.Enroll(ctx, "Near", "", near)
	require.NoError(t, err)

	got, err := reg.Nearest(ctx, probe, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Exact", got[0].Identity.DisplayName)
	assert.Equal(t, 1.0, got[0].Similarity)
	assert.Equal(t, "Near", got[1].Identity.DisplayName)
	assert.InDelta(t, 0.9, got[1].Similarity, 1e-6)
}

func TestNearest_ClampsK(t *testing.T) {
	ctx := context.Background()
	reg := New(memory.NewStore())
	for i := range 8 {
		_, err := reg.Enroll(ctx, fmt.Sprintf("P%d", i), "", descriptor(uint64(40+i)))
		require.NoError(t, err)
	}

	got, err := reg.Nearest(ctx, descriptor(40), 0)
	require.NoError(t, err)
	assert.Len(t, got, 5, "k <= 0 uses the default")
}

func TestNearest_InvalidProbe(t *testing.T) {
	reg := New(memory.NewStore())
	_, err := reg.Nearest(context.Background(), make(facematch.Descriptor, 3), 5)
	require.ErrorIs(t, err, facematch.ErrInvalidDescriptor)
}

func TestNearest_WithIndexMatchesExactScan(t *testing.T) {
	ctx := context.Background()
	exact := New(memory.NewStore())
	indexed := New(memory.NewStore(), WithIndex(database.NewIdentityIndex()))

	for i := range 30 {
		d := descriptor(uint64(200 + i))
		_, err := exact.Enroll(ctx, fmt.Sprintf("P%d", i), "", d)
		require.NoError(t, err)
		_, err = indexed.Enroll(ctx, fmt.Sprintf("P%d", i), "", d)
		require.NoError(t, err)
	}
	assert.True(t, indexed.IndexEnabled())

	probe := descriptor(215)
	want, err := exact.Nearest(ctx, probe, 3)
	require.NoError(t, err)
	got, err := indexed.Nearest(ctx, probe, 3)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, want[0].Identity.DisplayName, got[0].Identity.DisplayName)
	assert.Equal(t, 1.0, got[0].Similarity)
}

func TestIndex_SaveLoadAndRebuild(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	reg := New(store, WithIndex(database.NewIdentityIndex()))
	for i := range 5 {
		_, err := reg.Enroll(ctx, fmt.Sprintf("P%d", i), "", descriptor(uint64(300+i)))
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "identities.hnsw")
	require.NoError(t, reg.SaveIndex(path))

	// Same store: saved index is current.
	reloaded := New(store, WithIndex(database.NewIdentityIndex()))
	require.NoError(t, reloaded.LoadIndex(ctx, path))
	got, err := reloaded.Nearest(ctx, descriptor(302), 1)
	require.NoError(t, err)
	assert.Equal(t, "P2", got[0].Identity.DisplayName)

	// Stale index: store grew after save.
	_, err = reg.Enroll(ctx, "Late", "", descriptor(400))
	require.NoError(t, err)
	stale := New(store, WithIndex(database.NewIdentityIndex()))
	require.NoError(t, stale.LoadIndex(ctx, path))
	got, err = stale.Nearest(ctx, descriptor(400), 1)
	require.NoError(t, err)
	assert.Equal(t, "Late", got[0].Identity.DisplayName)
}

func TestIndex_Disabled(t *testing.T) {
	reg := New(memory.NewStore())
	assert.ErrorIs(t, reg.RebuildIndex(context.Background()), ErrIndexDisabled)
	assert.ErrorIs(t, reg.SaveIndex("/tmp/x"), ErrIndexDisabled)
}
