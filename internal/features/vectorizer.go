package features

import (
	"fmt"
	"math"

	"github.com/zcredlabs/zscore/internal/applicant"
	apperrors "github.com/zcredlabs/zscore/internal/errors"
)

// Count is the fixed length of every feature vector.
const Count = 14

// Positions of each feature in the canonical ordering. The ordering is
// load-bearing: trained models, persisted bundles, and explanations all
// index into it.
const (
	IdxAge = iota
	IdxGenderFemale
	IdxIncome
	IdxBehavioralScore
	IdxSocialScore
	IdxDigitalScore
	IdxOverallTrustScore
	IdxOnTimeRatio
	IdxAvgAmount
	IdxCommunityRating
	IdxEndorsements
	IdxTransactionRegularity
	IdxDeviceStability
	IdxZCredits
)

var names = [Count]string{
	"age_normalized",
	"gender_female",
	"income_normalized",
	"behavioral_score",
	"social_score",
	"digital_score",
	"overall_trust_score",
	"payment_on_time_ratio",
	"payment_avg_amount",
	"community_rating",
	"social_endorsements",
	"transaction_regularity",
	"device_stability",
	"z_credits_normalized",
}

// Vector is a fixed-order numeric feature vector.
type Vector [Count]float64

// Slice returns the vector as a freshly allocated slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Count)
	copy(out, v[:])
	return out
}

// Names returns the canonical feature ordering.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

// Name returns the feature name at index i.
func Name(i int) string {
	return names[i]
}

// Vectorize maps an applicant record into the fixed feature vector. Absent
// fields take documented defaults and every entry is normalized into a
// small bounded range. The only failure mode is a non-finite value, which
// is rejected with the offending feature named.
func Vectorize(rec *applicant.Record) (Vector, error) {
	if rec == nil {
		rec = &applicant.Record{}
	}
	res := rec.Resolve()
	var v Vector

	// Demographics
	v[IdxAge] = applicant.Bound(rec.Age, 30, 18, 100) / 100.0
	if rec.Gender == "Female" {
		v[IdxGenderFemale] = 1
	}
	v[IdxIncome] = applicant.Bound(rec.MonthlyIncome, 15000, 0, 10000000) / 100000.0

	// Trust components
	v[IdxBehavioralScore] = applicant.Bound(rec.BehavioralScore, 0.2, 0, 1)
	v[IdxSocialScore] = applicant.Bound(rec.SocialScore, 0.2, 0, 1)
	v[IdxDigitalScore] = applicant.Bound(rec.DigitalScore, 0.2, 0, 1)
	v[IdxOverallTrustScore] = applicant.Bound(rec.OverallTrustScore, 0.2, 0, 1)

	// Payment behavior
	v[IdxOnTimeRatio] = res.Payment.DerivedOnTimeRatio(0.5)
	if res.Payment != nil {
		v[IdxAvgAmount] = applicant.BoundMin(res.Payment.AverageAmount, 1000, 0) / 10000.0
	} else {
		v[IdxAvgAmount] = 1000.0 / 10000.0
	}

	// Social proof
	if res.Social != nil {
		v[IdxCommunityRating] = applicant.Bound(res.Social.CommunityRating, 3.0, 1.0, 5.0) / 5.0
		v[IdxEndorsements] = applicant.BoundMin(res.Social.Endorsements, 0, 0) / 10.0
	} else {
		v[IdxCommunityRating] = 3.0 / 5.0
	}

	// Digital footprint
	if res.Digital != nil {
		v[IdxTransactionRegularity] = applicant.Bound(res.Digital.TransactionRegularity, 0.5, 0, 1)
		v[IdxDeviceStability] = applicant.Bound(res.Digital.DeviceStability, 0.7, 0, 1)
	} else {
		v[IdxTransactionRegularity] = 0.5
		v[IdxDeviceStability] = 0.7
	}

	// Loyalty credits
	v[IdxZCredits] = applicant.BoundMin(rec.ZCredits, 0, 0) / 1000.0

	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Vector{}, apperrors.NewFeatureExtractionError(names[i], fmt.Sprintf("feature %q is not finite", names[i]))
		}
	}
	return v, nil
}
