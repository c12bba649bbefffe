// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Descriptor constants
const (
	// DescriptorDim is the length of a face descriptor (face-api.js / dlib ResNet)
	DescriptorDim = 128
)

// Face matching constants
const (
	// DefaultMatchThreshold is the minimum similarity a probe must strictly exceed
	// for the matcher to accept an identity
	DefaultMatchThreshold = 0.6

	// DefaultNormalization is the Euclidean distance at which similarity reaches 0.
	// Calibrated against the typical distance range of 128-d face descriptors.
	DefaultNormalization = 2.0

	// DefaultMatchPolicy is the selection policy used when several identities
	// clear the threshold
	DefaultMatchPolicy = "first"
)

// Authentication constants
const (
	// DefaultMinDetectionConfidence is the detector score below which an attempt
	// is rejected before matching
	DefaultMinDetectionConfidence = 0.7

	// DefaultAuthMatchThreshold is the similarity threshold used by the
	// authentication layer (more permissive than the matcher default)
	DefaultAuthMatchThreshold = 0.4
)

// Nearest-neighbour constants
const (
	// DefaultNearestK is the default number of candidates returned by a nearest query
	DefaultNearestK = 5

	// MaxNearestK caps the number of candidates a single query may request
	MaxNearestK = 100
)

// Seed constants
const (
	// SeedValueRange is the width of the uniform range seed descriptors are drawn from,
	// centred on zero
	SeedValueRange = 1.0
)
