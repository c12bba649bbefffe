package facematch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/metrics"
)

// Policy decides which identity wins when several clear the threshold.
type Policy string

const (
	// PolicyFirst accepts the first identity in enrollment order whose score
	// strictly exceeds the threshold.
	PolicyFirst Policy = "first"
	// PolicyBest accepts the highest-scoring identity strictly above the threshold.
	// Ties go to the earlier enrollment.
	PolicyBest Policy = "best"
)

// ParsePolicy maps a configuration value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFirst, PolicyBest:
		return Policy(s), nil
	case "":
		return PolicyFirst, nil
	default:
		return "", fmt.Errorf("unknown match policy %q (want %q or %q)", s, PolicyFirst, PolicyBest)
	}
}

// IdentityLister enumerates enrolled identities in enrollment order.
type IdentityLister interface {
	ListAll(ctx context.Context) ([]Identity, error)
}

// Matcher decides whether a probe descriptor belongs to an enrolled identity.
// It only reads from the registry.
type Matcher struct {
	registry IdentityLister
	metric   Metric
	policy   Policy
	dim      int
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(m *Matcher)

func WithMetric(metric Metric) Option {
	return func(m *Matcher) {
		m.metric = metric
	}
}

func WithPolicy(p Policy) Option {
	return func(m *Matcher) {
		m.policy = p
	}
}

func WithDimension(dim int) Option {
	return func(m *Matcher) {
		m.dim = dim
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		m.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Matcher) {
		m.metrics = mt
	}
}

// NewMatcher creates a matcher over the given registry.
func NewMatcher(registry IdentityLister, opts ...Option) *Matcher {
	m := &Matcher{
		registry: registry,
		metric:   DefaultMetric,
		policy:   PolicyFirst,
		dim:      constants.DescriptorDim,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return m
}

// Policy returns the selection policy in use.
func (m *Matcher) Policy() Policy {
	return m.policy
}

// Similarity compares two descriptors with the matcher's metric.
func (m *Matcher) Similarity(a, b Descriptor) (float64, error) {
	return m.metric.Similarity(a, b)
}

// FindBestMatch scans every enrolled identity and returns the accepted match, if any.
// An error is returned only when the registry cannot be read; "no match" and
// "invalid probe" are reported through the result.
func (m *Matcher) FindBestMatch(ctx context.Context, probe Descriptor, threshold float64) (MatchResult, error) {
	start := time.Now()
	defer func() {
		m.metrics.ObserveMatchLatency(time.Since(start))
	}()

	if err := probe.Validate(m.dim); err != nil {
		m.logger.DebugContext(ctx, "rejecting probe", "error", err)
		m.metrics.IncrementMatchOutcome(metrics.OutcomeInvalidProbe)
		return MatchResult{Matched: false, Reason: ReasonInvalidProbe}, nil
	}
	// NaN compares false with every score; report it instead of scanning.
	if math.IsNaN(threshold) {
		m.logger.WarnContext(ctx, "rejecting NaN threshold")
		m.metrics.IncrementMatchOutcome(metrics.OutcomeInvalidThreshold)
		return MatchResult{Matched: false, Reason: ReasonInvalidThreshold}, nil
	}

	identities, err := m.registry.ListAll(ctx)
	if err != nil {
		return MatchResult{}, fmt.Errorf("list identities: %w", err)
	}

	var (
		found     *Identity
		bestScore float64
	)
	for i := range identities {
		score, err := m.metric.Similarity(probe, identities[i].Descriptor)
		if errors.Is(err, ErrDimensionMismatch) {
			m.logger.WarnContext(ctx, "skipping identity with mismatched descriptor",
				"identity_id", identities[i].ID, "dim", len(identities[i].Descriptor))
			continue
		}
		m.logger.DebugContext(ctx, "similarity", "identity_id", identities[i].ID,
			"display_name", identities[i].DisplayName, "score", score)

		if !(score > threshold) {
			continue
		}
		if found == nil || (m.policy == PolicyBest && score > bestScore) {
			found = &identities[i]
			bestScore = score
		}
	}

	if found == nil {
		m.metrics.IncrementMatchOutcome(metrics.OutcomeNoMatch)
		return MatchResult{Matched: false, Reason: ReasonNoMatch}, nil
	}

	m.metrics.IncrementMatchOutcome(metrics.OutcomeMatched)
	identity := found.Clone()
	return MatchResult{
		Matched:  true,
		Identity: &identity,
		Score:    bestScore,
		Reason:   ReasonMatched,
	}, nil
}
