package trust

import (
	"math"

	"github.com/zcredlabs/zscore/internal/applicant"
)

// Component weights for the overall blend. Behavioral history dominates
// because it is the strongest repayment predictor for thin-file applicants.
const (
	BehavioralWeight = 0.50
	SocialWeight     = 0.30
	DigitalWeight    = 0.20
)

const (
	floorScore = 0.1

	// conservativeDefault is returned when a component computation hits
	// invalid numeric input. The calculator never fails outright.
	conservativeDefault = 0.2
)

// Score is the outcome of a single component computation. Degraded marks
// the conservative-default branch taken on invalid input, so callers can
// log and tests can assert on it separately from the nominal path.
type Score struct {
	Value    float64
	Degraded bool
	Reason   string
}

// Result aggregates the three component scores with the weighted overall
// blend. Warnings collect the degraded-branch reasons; they never surface
// on the wire.
type Result struct {
	BehavioralScore   float64 `json:"behavioral_score"`
	SocialScore       float64 `json:"social_score"`
	DigitalScore      float64 `json:"digital_score"`
	OverallTrustScore float64 `json:"overall_trust_score"`
	TrustPercentage   float64 `json:"trust_percentage"`

	Warnings []string `json:"-"`
}

// Behavioral scores payment punctuality, income stability, and transaction
// consistency. A nil payment history scores the floor.
func Behavioral(payment *applicant.PaymentHistory, incomeStability float64) Score {
	if payment == nil {
		return Score{Value: floorScore}
	}

	onTime := applicant.BoundMin(payment.OnTimePayments, 0, 0)
	total := math.Max(applicant.BoundMin(payment.TotalPayments, 1, 0), 1)
	onTimeRatio := onTime / total
	punctuality := math.Min(onTimeRatio*0.4, 0.4)

	stability := math.Min(clamp01(incomeStability)*0.3, 0.3)

	avgAmount := applicant.BoundMin(payment.AverageAmount, 0, 0)
	consistency := math.Min(avgAmount/10000*0.3, 0.3)

	totalScore := punctuality + stability + consistency
	if !isFinite(totalScore) {
		return degraded("behavioral score computed from invalid payment data")
	}
	return Score{Value: clip(totalScore)}
}

// Social scores community rating, endorsements, and network strength.
// A nil social proof scores the floor.
func Social(social *applicant.SocialProof, communityRating float64) Score {
	if social == nil {
		return Score{Value: floorScore}
	}

	rating := communityRating
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}
	ratingScore := math.Min(rating/5.0*0.5, 0.5)

	endorsements := applicant.BoundMin(social.Endorsements, 0, 0)
	endorsementScore := math.Min(endorsements/10.0*0.25, 0.25)

	networkSize := applicant.BoundMin(social.NetworkSize, 0, 0)
	networkScore := math.Min(networkSize/50.0*0.25, 0.25)

	totalScore := ratingScore + endorsementScore + networkScore
	if !isFinite(totalScore) {
		return degraded("social score computed from invalid proof data")
	}
	return Score{Value: clip(totalScore)}
}

// Digital scores transaction regularity, device stability, and digital
// literacy. A nil footprint scores the floor.
func Digital(footprint *applicant.DigitalFootprint) Score {
	if footprint == nil {
		return Score{Value: floorScore}
	}

	regularity := applicant.Bound(footprint.TransactionRegularity, 0.5, 0, 1) * 0.35
	device := applicant.Bound(footprint.DeviceStability, 0.7, 0, 1) * 0.30
	literacy := applicant.Bound(footprint.DigitalLiteracy, 0.5, 0, 1) * 0.35

	totalScore := regularity + device + literacy
	if !isFinite(totalScore) {
		return degraded("digital score computed from invalid footprint data")
	}
	return Score{Value: clip(totalScore)}
}

// Overall blends the three components with the canonical weights. The
// blend is used uniformly for scoring and persistence; no alternate
// averaging exists.
func Overall(behavioral, social, digital float64) float64 {
	return clip(BehavioralWeight*behavioral + SocialWeight*social + DigitalWeight*digital)
}

// Calculate computes all component scores plus the weighted overall for a
// record. It never returns an error; degraded components fall back to a
// conservative default and report a warning.
func Calculate(rec *applicant.Record) Result {
	if rec == nil {
		rec = &applicant.Record{}
	}
	res := rec.Resolve()

	incomeStability := applicant.Bound(rec.IncomeStability, 0.7, 0, 1)

	communityRating := 3.0
	if res.Social != nil {
		communityRating = applicant.Bound(res.Social.CommunityRating, 3.0, 1.0, 5.0)
	}

	behavioral := Behavioral(res.Payment, incomeStability)
	social := Social(res.Social, communityRating)
	digital := Digital(res.Digital)

	overall := Overall(behavioral.Value, social.Value, digital.Value)

	result := Result{
		BehavioralScore:   behavioral.Value,
		SocialScore:       social.Value,
		DigitalScore:      digital.Value,
		OverallTrustScore: overall,
		TrustPercentage:   overall * 100,
	}
	for _, s := range []Score{behavioral, social, digital} {
		if s.Degraded {
			result.Warnings = append(result.Warnings, s.Reason)
		}
	}
	return result
}

func degraded(reason string) Score {
	return Score{Value: conservativeDefault, Degraded: true, Reason: reason}
}

func clip(v float64) float64 {
	return math.Max(floorScore, math.Min(1.0, v))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
