// Package facematch provides the descriptor matching engine: the similarity metric,
// threshold policy and nearest-match selection over a registry of enrolled identities.
package facematch

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

var (
	// ErrInvalidDescriptor is returned when a descriptor has the wrong dimensionality
	// or contains a non-finite value.
	ErrInvalidDescriptor = errors.New("invalid descriptor")

	// ErrDimensionMismatch is returned when two descriptors of different lengths are compared.
	ErrDimensionMismatch = errors.New("descriptor dimension mismatch")
)

// Descriptor is a face embedding produced by an external recognition model.
type Descriptor []float32

// Validate checks that d has exactly dim values and that every value is finite.
func (d Descriptor) Validate(dim int) error {
	if len(d) != dim {
		return fmt.Errorf("%w: expected %d values, got %d", ErrInvalidDescriptor, dim, len(d))
	}
	for i, v := range d {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrInvalidDescriptor, i)
		}
	}
	return nil
}

// Clone returns a copy that shares no memory with d.
func (d Descriptor) Clone() Descriptor {
	if d == nil {
		return nil
	}
	return slices.Clone(d)
}

// Identity is an enrolled person.
type Identity struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email,omitempty"` // contact metadata, not used by matching
	Descriptor  Descriptor `json:"descriptor"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
}

// Clone returns a deep copy of the identity.
func (i Identity) Clone() Identity {
	i.Descriptor = i.Descriptor.Clone()
	return i
}

// Match reasons reported in MatchResult.Reason
const (
	ReasonMatched          = "matched"
	ReasonInvalidProbe     = "invalid probe"
	ReasonInvalidThreshold = "invalid threshold"
	ReasonNoMatch          = "no identity above threshold"
)

// MatchResult is the decision for a single probe. Identity and Score are only
// set when Matched is true.
type MatchResult struct {
	Matched  bool      `json:"matched"`
	Identity *Identity `json:"identity,omitempty"`
	Score    float64   `json:"score,omitempty"`
	Reason   string    `json:"reason"`
}

// Candidate is one ranked entry of a nearest-neighbour listing.
type Candidate struct {
	Identity   Identity `json:"identity"`
	Similarity float64  `json:"similarity"`
}
