package explain

import (
	"github.com/zcredlabs/zscore/internal/features"
)

// Fallback builds a reduced explanation from fixed credit-factor
// weights. Served when the attribution engine is unavailable but the
// feature vector is still usable.
func Fallback(v features.Vector) *FallbackExplanation {
	return &FallbackExplanation{
		Type: "fallback",
		KeyFactors: map[string]float64{
			"income_normalized":     v[features.IdxIncome] * 0.3,
			"overall_trust_score":   v[features.IdxOverallTrustScore] * 0.25,
			"behavioral_score":      v[features.IdxBehavioralScore] * 0.2,
			"payment_on_time_ratio": v[features.IdxOnTimeRatio] * 0.15,
			"age_normalized":        v[features.IdxAge] * 0.1,
		},
		Message: "Advanced explanation temporarily unavailable. Showing key contributing factors.",
	}
}

// MinimalFallback is the last-resort payload when not even the feature
// vector could be produced.
func MinimalFallback() *FallbackExplanation {
	return &FallbackExplanation{
		Type:    "minimal",
		Message: "Explanation unavailable due to technical issues.",
	}
}
