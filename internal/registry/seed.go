package registry

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/facematch"
)

// DemoIdentities are enrolled by Seed.
var DemoIdentities = []struct {
	Name  string
	Email string
}{
	{"John Doe", "john.doe@example.com"},
	{"Jane Smith", "jane.smith@example.com"},
	{"Test User", "test.user@example.com"},
}

// RandomDescriptor returns dim values drawn uniformly from [-0.5, 0.5).
func RandomDescriptor(r *rand.Rand, dim int) facematch.Descriptor {
	d := make(facematch.Descriptor, dim)
	for i := range d {
		d[i] = (r.Float32() - 0.5) * constants.SeedValueRange
	}
	return d
}

// Seed enrolls DemoIdentities with random descriptors when the registry is empty.
// It returns the identities it enrolled; a non-empty registry is left untouched.
func (r *Registry) Seed(ctx context.Context, rng *rand.Rand) ([]facematch.Identity, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		r.logger.InfoContext(ctx, "registry not empty, skipping seed", "identities", n)
		return nil, nil
	}

	seeded := make([]facematch.Identity, 0, len(DemoIdentities))
	for _, demo := range DemoIdentities {
		identity, err := r.Enroll(ctx, demo.Name, demo.Email, RandomDescriptor(rng, r.dim))
		if err != nil {
			return seeded, fmt.Errorf("seed %s: %w", demo.Name, err)
		}
		seeded = append(seeded, identity)
	}
	return seeded, nil
}
