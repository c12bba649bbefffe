package facematch

import (
	"fmt"
	"math"

	"github.com/hupe1980/vecgo/distance"

	"github.com/kozaktomas/facegate/internal/constants"
)

// EuclideanDistance computes the L2 distance between two descriptors.
func EuclideanDistance(a, b Descriptor) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: empty descriptor", ErrDimensionMismatch)
	}
	return math.Sqrt(float64(distance.SquaredL2(a, b))), nil
}

// Metric converts Euclidean distance into a similarity score in [0, 1].
type Metric struct {
	// Normalization is the distance at which similarity reaches 0.
	Normalization float64
}

// DefaultMetric uses the calibrated normalization constant for 128-d descriptors.
var DefaultMetric = Metric{Normalization: constants.DefaultNormalization}

// Similarity returns max(0, 1 - distance/Normalization). Identical descriptors score 1.
func (m Metric) Similarity(a, b Descriptor) (float64, error) {
	d, err := EuclideanDistance(a, b)
	if err != nil {
		return 0, err
	}
	norm := m.Normalization
	if norm <= 0 {
		norm = constants.DefaultNormalization
	}
	return clamp01(1 - d/norm), nil
}

// Similarity compares two descriptors with DefaultMetric.
func Similarity(a, b Descriptor) (float64, error) {
	return DefaultMetric.Similarity(a, b)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
