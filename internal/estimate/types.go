package estimate

import (
	"context"
	"errors"
)

// Severity grades how bad the visible damage is.
type Severity string

const (
	SeverityMinor    Severity = "Minor"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
)

// Estimate is the normalized damage assessment driving the reply and the
// booking offer. Transient; never persisted beyond the reply it generates.
type Estimate struct {
	Severity         Severity
	DamageAreas      []string
	DamageTypes      []string
	SuggestedRepairs []string
	MinCost          float64
	MaxCost          float64
	Confidence       float64
}

// RawEstimate is the untrusted payload returned by a vision model. Pointer
// fields distinguish "absent" from zero values so the normalizer can apply
// defaults.
type RawEstimate struct {
	Severity         *string  `json:"severity"`
	DamageAreas      []string `json:"damage_areas"`
	DamageTypes      []string `json:"damage_types"`
	SuggestedRepairs []string `json:"suggested_repairs"`
	MinCost          *float64 `json:"min_cost"`
	MaxCost          *float64 `json:"max_cost"`
	Confidence       *float64 `json:"confidence"`
}

// ErrUnavailable marks estimator failures where the model never answered
// (network error, timeout). ErrMalformed marks answers that could not be
// interpreted. Both normalize to the same default estimate, but callers can
// tell them apart for logging and metrics.
var (
	ErrUnavailable = errors.New("estimate: estimator unavailable")
	ErrMalformed   = errors.New("estimate: estimator response malformed")
)

// Client produces one unified raw estimate covering all provided images.
type Client interface {
	EstimateDamage(ctx context.Context, imageURLs []string) (*RawEstimate, error)
}
