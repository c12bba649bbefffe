// Package auth turns a face detection outcome into an authentication decision.
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/metrics"
)

// User-facing messages
const (
	MessageNoFace        = "No face detected"
	MessageLowQuality    = "Insufficient detection quality"
	MessageNotRecognized = "Face not recognized"
)

// Result is the outcome of one authentication attempt.
type Result struct {
	Success  bool                `json:"success"`
	Identity *facematch.Identity `json:"identity,omitempty"`
	Score    float64             `json:"score,omitempty"`
	Message  string              `json:"message"`
}

// Matcher is the part of facematch.Matcher the authenticator needs.
type Matcher interface {
	FindBestMatch(ctx context.Context, probe facematch.Descriptor, threshold float64) (facematch.MatchResult, error)
}

// Authenticator gates detections on confidence and resolves them to an identity.
type Authenticator struct {
	matcher       Matcher
	minConfidence float64
	threshold     float64
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type Option func(a *Authenticator)

// WithMinConfidence sets the detection confidence below which the matcher is skipped.
func WithMinConfidence(c float64) Option {
	return func(a *Authenticator) {
		a.minConfidence = c
	}
}

// WithThreshold sets the similarity threshold passed to the matcher.
func WithThreshold(t float64) Option {
	return func(a *Authenticator) {
		a.threshold = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(a *Authenticator) {
		a.metrics = mt
	}
}

// New creates an authenticator using the default gate (0.7) and threshold (0.4).
func New(matcher Matcher, opts ...Option) *Authenticator {
	a := &Authenticator{
		matcher:       matcher,
		minConfidence: constants.DefaultMinDetectionConfidence,
		threshold:     constants.DefaultAuthMatchThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	return a
}

// MinConfidence returns the detection confidence gate.
func (a *Authenticator) MinConfidence() float64 {
	return a.minConfidence
}

// Threshold returns the match threshold used for authentication.
func (a *Authenticator) Threshold() float64 {
	return a.threshold
}

// Authenticate decides an attempt. The error is non-nil only when the registry
// could not be read; every other outcome is described by the Result.
func (a *Authenticator) Authenticate(ctx context.Context, outcome facematch.DetectionOutcome) (Result, error) {
	switch o := outcome.(type) {
	case facematch.Detected:
		return a.authenticateDetected(ctx, o)
	default:
		// NoFace and nil
		a.metrics.IncrementAuthOutcome(metrics.AuthNoFace)
		return Result{Success: false, Message: MessageNoFace}, nil
	}
}

func (a *Authenticator) authenticateDetected(ctx context.Context, d facematch.Detected) (Result, error) {
	// Written so that a NaN confidence or gate fails closed.
	if !(d.Confidence >= a.minConfidence) {
		a.logger.InfoContext(ctx, "rejecting low quality detection",
			"confidence", d.Confidence, "min_confidence", a.minConfidence)
		a.metrics.IncrementAuthOutcome(metrics.AuthLowQuality)
		return Result{Success: false, Message: MessageLowQuality}, nil
	}

	match, err := a.matcher.FindBestMatch(ctx, d.Descriptor, a.threshold)
	if err != nil {
		a.metrics.IncrementAuthOutcome(metrics.AuthError)
		return Result{}, fmt.Errorf("match descriptor: %w", err)
	}

	if !match.Matched {
		a.logger.InfoContext(ctx, "face not recognized", "reason", match.Reason)
		a.metrics.IncrementAuthOutcome(metrics.AuthNotRecognized)
		return Result{Success: false, Message: MessageNotRecognized}, nil
	}

	a.logger.InfoContext(ctx, "authenticated", "identity_id", match.Identity.ID, "score", match.Score)
	a.metrics.IncrementAuthOutcome(metrics.AuthSuccess)
	return Result{
		Success:  true,
		Identity: match.Identity,
		Score:    match.Score,
		Message:  WelcomeMessage(match.Identity.DisplayName),
	}, nil
}

// WelcomeMessage is the greeting shown on successful authentication.
func WelcomeMessage(displayName string) string {
	return "Welcome, " + displayName + "!"
}
