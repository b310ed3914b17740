// Package explain produces additive feature attributions for risk
// predictions, plus the applicant-facing narrative built on top of
// them. Attributions are sampled-coalition Shapley approximations
// normalized so they sum exactly to prediction minus baseline.
package explain

// Explanation is the full attribution payload for one prediction.
// Success populates the attribution fields; failure paths populate
// Error and the fallback.
type Explanation struct {
	ShapValues           []float64                `json:"shap_values,omitempty"`
	BaseValue            float64                  `json:"base_value,omitempty"`
	FeatureNames         []string                 `json:"feature_names,omitempty"`
	FeatureValues        []float64                `json:"feature_values,omitempty"`
	FeatureContributions map[string]*Contribution `json:"feature_contributions,omitempty"`
	TopContributors      *TopContributors         `json:"top_contributors,omitempty"`
	ExplanationQuality   string                   `json:"explanation_quality,omitempty"`
	Error                string                   `json:"error,omitempty"`
	Fallback             *FallbackExplanation     `json:"fallback_explanation,omitempty"`
}

// Contribution describes one feature's share of a prediction.
type Contribution struct {
	ShapValue             float64 `json:"shap_value"`
	FeatureValue          float64 `json:"feature_value"`
	ContributionType      string  `json:"contribution_type"`
	AbsContribution       float64 `json:"abs_contribution"`
	FeatureImportanceRank int     `json:"feature_importance_rank"`
}

// TopContributors holds the strongest drivers in each direction,
// limited to three per side.
type TopContributors struct {
	Positive []Contributor `json:"positive"`
	Negative []Contributor `json:"negative"`
}

// Contributor is a single ranked driver. Impact is the attribution for
// positive drivers and its magnitude for negative ones.
type Contributor struct {
	Feature     string  `json:"feature"`
	Impact      float64 `json:"impact"`
	Description string  `json:"description"`
}

// FallbackExplanation is the reduced payload served when attribution
// is unavailable.
type FallbackExplanation struct {
	Type       string             `json:"type"`
	KeyFactors map[string]float64 `json:"key_factors,omitempty"`
	Message    string             `json:"message"`
}

var featureDescriptions = map[string]string{
	"age_normalized":         "Applicant age (normalized)",
	"gender_female":          "Gender factor",
	"income_normalized":      "Monthly income level",
	"behavioral_score":       "Payment behavior history",
	"social_score":           "Community trust rating",
	"digital_score":          "Digital engagement pattern",
	"overall_trust_score":    "Combined trust assessment",
	"payment_on_time_ratio":  "On-time payment percentage",
	"payment_avg_amount":     "Average transaction amount",
	"community_rating":       "Community feedback score",
	"social_endorsements":    "Social proof indicators",
	"transaction_regularity": "Transaction consistency",
	"device_stability":       "Digital device usage pattern",
	"z_credits_normalized":   "Gamification score achievement",
}

// Describe returns the human-readable description for a feature name.
func Describe(feature string) string {
	if d, ok := featureDescriptions[feature]; ok {
		return d
	}
	return "Factor: " + feature
}
