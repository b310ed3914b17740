package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcredlabs/zscore/internal/applicant"
	apperrors "github.com/zcredlabs/zscore/internal/errors"
)

func f(v float64) *float64 { return &v }

func TestVectorizeDefaults(t *testing.T) {
	v, err := Vectorize(&applicant.Record{})
	require.NoError(t, err)

	assert.InDelta(t, 0.30, v[IdxAge], 1e-9)
	assert.Equal(t, 0.0, v[IdxGenderFemale])
	assert.InDelta(t, 0.15, v[IdxIncome], 1e-9)
	assert.InDelta(t, 0.2, v[IdxBehavioralScore], 1e-9)
	assert.InDelta(t, 0.2, v[IdxSocialScore], 1e-9)
	assert.InDelta(t, 0.2, v[IdxDigitalScore], 1e-9)
	assert.InDelta(t, 0.2, v[IdxOverallTrustScore], 1e-9)
	assert.InDelta(t, 0.5, v[IdxOnTimeRatio], 1e-9)
	assert.InDelta(t, 0.1, v[IdxAvgAmount], 1e-9)
	assert.InDelta(t, 0.6, v[IdxCommunityRating], 1e-9)
	assert.Equal(t, 0.0, v[IdxEndorsements])
	assert.InDelta(t, 0.5, v[IdxTransactionRegularity], 1e-9)
	assert.InDelta(t, 0.7, v[IdxDeviceStability], 1e-9)
	assert.Equal(t, 0.0, v[IdxZCredits])
}

func TestVectorizePopulatedRecord(t *testing.T) {
	rec := &applicant.Record{
		Age:               f(28),
		Gender:            "Female",
		MonthlyIncome:     f(15000),
		BehavioralScore:   f(0.65),
		SocialScore:       f(0.60),
		DigitalScore:      f(0.55),
		OverallTrustScore: f(0.60),
		ZCredits:          f(150),
		UtilityPaymentHistory: applicant.ObjectPayload(applicant.PaymentHistory{
			OnTimeRatio:   f(0.85),
			AverageAmount: f(2500),
		}),
		SocialProofData: applicant.ObjectPayload(applicant.SocialProof{
			CommunityRating: f(4.2),
			Endorsements:    f(6),
		}),
		DigitalFootprintData: applicant.ObjectPayload(applicant.DigitalFootprint{
			TransactionRegularity: f(0.75),
			DeviceStability:       f(0.9),
		}),
	}

	v, err := Vectorize(rec)
	require.NoError(t, err)

	assert.InDelta(t, 0.28, v[IdxAge], 1e-9)
	assert.Equal(t, 1.0, v[IdxGenderFemale])
	assert.InDelta(t, 0.15, v[IdxIncome], 1e-9)
	assert.InDelta(t, 0.65, v[IdxBehavioralScore], 1e-9)
	assert.InDelta(t, 0.85, v[IdxOnTimeRatio], 1e-9)
	assert.InDelta(t, 0.25, v[IdxAvgAmount], 1e-9)
	assert.InDelta(t, 0.84, v[IdxCommunityRating], 1e-9)
	assert.InDelta(t, 0.6, v[IdxEndorsements], 1e-9)
	assert.InDelta(t, 0.75, v[IdxTransactionRegularity], 1e-9)
	assert.InDelta(t, 0.9, v[IdxDeviceStability], 1e-9)
	assert.InDelta(t, 0.15, v[IdxZCredits], 1e-9)
}

func TestVectorizeClampsOutOfRange(t *testing.T) {
	rec := &applicant.Record{
		Age:           f(150),
		MonthlyIncome: f(50000000),
		SocialProofData: applicant.ObjectPayload(applicant.SocialProof{
			CommunityRating: f(11),
		}),
	}

	v, err := Vectorize(rec)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, v[IdxAge], 1e-9)
	assert.InDelta(t, 100.0, v[IdxIncome], 1e-9)
	assert.InDelta(t, 1.0, v[IdxCommunityRating], 1e-9)
}

func TestVectorizeRejectsNonFinite(t *testing.T) {
	rec := &applicant.Record{ZCredits: f(math.NaN())}

	_, err := Vectorize(rec)
	require.Error(t, err)

	appErr := apperrors.ToAppError(err)
	assert.Equal(t, apperrors.CategoryFeatureExtraction, appErr.Category)
	assert.Contains(t, err.Error(), "z_credits_normalized")
}

func TestVectorizeGenderIsCaseSensitive(t *testing.T) {
	male, err := Vectorize(&applicant.Record{Gender: "Male"})
	require.NoError(t, err)
	female, err := Vectorize(&applicant.Record{Gender: "Female"})
	require.NoError(t, err)
	lower, err := Vectorize(&applicant.Record{Gender: "female"})
	require.NoError(t, err)

	assert.Equal(t, 0.0, male[IdxGenderFemale])
	assert.Equal(t, 1.0, female[IdxGenderFemale])
	assert.Equal(t, 0.0, lower[IdxGenderFemale])
}

func TestNamesStableAndAligned(t *testing.T) {
	got := Names()

	require.Len(t, got, Count)
	assert.Equal(t, "age_normalized", got[IdxAge])
	assert.Equal(t, "overall_trust_score", got[IdxOverallTrustScore])
	assert.Equal(t, "z_credits_normalized", got[IdxZCredits])

	// Mutating the returned slice must not affect the canonical ordering.
	got[0] = "tampered"
	assert.Equal(t, "age_normalized", Name(IdxAge))
}
