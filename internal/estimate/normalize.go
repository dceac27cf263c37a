package estimate

const (
	defaultMinCost = 450
	defaultMaxCost = 1200

	// Confidence defaults are deliberately distinct so downstream consumers
	// can tell "model unsure" from "model unreachable" from "no model
	// configured", even though all three render identically today.
	confidenceIncomplete   = 0.70
	confidenceFailed       = 0.55
	confidenceUnconfigured = 0.65
)

// Normalize repairs a raw estimator payload into a valid Estimate, applying
// safe defaults for absent fields. A nil payload yields the full-default
// estimate with the incomplete-response confidence.
func Normalize(raw *RawEstimate) Estimate {
	if raw == nil {
		raw = &RawEstimate{}
	}

	est := Estimate{
		Severity:         SeverityModerate,
		DamageAreas:      raw.DamageAreas,
		DamageTypes:      raw.DamageTypes,
		SuggestedRepairs: raw.SuggestedRepairs,
		MinCost:          defaultMinCost,
		MaxCost:          defaultMaxCost,
		Confidence:       confidenceIncomplete,
	}

	if raw.Severity != nil {
		switch Severity(*raw.Severity) {
		case SeverityMinor, SeverityModerate, SeveritySevere:
			est.Severity = Severity(*raw.Severity)
		}
	}
	if raw.MinCost != nil {
		est.MinCost = *raw.MinCost
	}
	if raw.MaxCost != nil {
		est.MaxCost = *raw.MaxCost
	}
	if raw.Confidence != nil {
		est.Confidence = *raw.Confidence
	}

	if est.MinCost < 0 {
		est.MinCost = 0
	}
	if est.MaxCost < est.MinCost {
		est.MaxCost = est.MinCost
	}
	if est.Confidence < 0 {
		est.Confidence = 0
	}
	if est.Confidence > 1 {
		est.Confidence = 1
	}
	return est
}

// failedDefault is the estimate returned when the estimator call failed
// outright.
func failedDefault() Estimate {
	est := Normalize(nil)
	est.Confidence = confidenceFailed
	return est
}

// unconfiguredDefault is the fixed neutral estimate returned without
// attempting a call when no estimator credentials exist.
func unconfiguredDefault() Estimate {
	est := Normalize(nil)
	est.Confidence = confidenceUnconfigured
	return est
}
