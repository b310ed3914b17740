package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcredlabs/zscore/internal/applicant"
)

func fullRecord() *applicant.Record {
	age := 32.0
	income := 25000.0
	credits := 150.0

	return &applicant.Record{
		Name:          "Priya Sharma",
		Phone:         "9876543210",
		Email:         "priya@example.com",
		Age:           &age,
		Gender:        "female",
		Location:      "Pune",
		Occupation:    "shopkeeper",
		MonthlyIncome: &income,
		ZCredits:      &credits,
		UtilityPaymentHistory: applicant.ObjectPayload(map[string]interface{}{
			"total_payments":   12,
			"on_time_payments": 11,
			"average_amount":   850.0,
		}),
		SocialProofData: applicant.ObjectPayload(map[string]interface{}{
			"community_rating": 4.2,
			"endorsements":     7,
		}),
	}
}

func TestNewApplicantDefaults(t *testing.T) {
	a := NewApplicant(fullRecord())

	assert.Len(t, a.ID, 36, "ID should be a UUID")
	assert.Equal(t, "not_applied", a.ApplicationStatus)
	assert.Equal(t, "Priya Sharma", a.Name)
	assert.Equal(t, "9876543210", a.Phone)
	require.NotNil(t, a.Age)
	assert.Equal(t, 32.0, *a.Age)
	require.NotNil(t, a.MonthlyIncome)
	assert.Equal(t, 25000.0, *a.MonthlyIncome)
	assert.Equal(t, int64(150), a.ZCredits)
	assert.False(t, a.CreatedAt.IsZero())
	assert.False(t, a.UpdatedAt.IsZero())

	// Scoring-owned columns start unset
	assert.Zero(t, a.BehavioralScore)
	assert.Zero(t, a.OverallTrustScore)
	assert.Empty(t, a.RiskCategory)

	assert.Contains(t, a.PaymentHistory, "on_time_payments")
	assert.Contains(t, a.SocialProof, "community_rating")
	assert.Empty(t, a.DigitalFootprint)
}

func TestApplyRecordPreservesScoringColumns(t *testing.T) {
	a := NewApplicant(fullRecord())
	a.BehavioralScore = 78.5
	a.OverallTrustScore = 72.0
	a.RiskCategory = "Low Risk"
	a.RiskScore = 0.81
	created := a.CreatedAt

	time.Sleep(2 * time.Millisecond)

	updated := fullRecord()
	updated.Name = "Priya S. Sharma"
	newIncome := 30000.0
	updated.MonthlyIncome = &newIncome
	a.ApplyRecord(updated)

	assert.Equal(t, "Priya S. Sharma", a.Name)
	assert.Equal(t, 30000.0, *a.MonthlyIncome)

	assert.Equal(t, 78.5, a.BehavioralScore)
	assert.Equal(t, 72.0, a.OverallTrustScore)
	assert.Equal(t, "Low Risk", a.RiskCategory)
	assert.Equal(t, 0.81, a.RiskScore)

	assert.Equal(t, created, a.CreatedAt)
	assert.True(t, a.UpdatedAt.After(created))
}

func TestApplyRecordNilIsNoop(t *testing.T) {
	a := NewApplicant(fullRecord())
	name := a.Name

	a.ApplyRecord(nil)

	assert.Equal(t, name, a.Name)
}

func TestRecordRoundTrip(t *testing.T) {
	a := NewApplicant(fullRecord())
	a.BehavioralScore = 80.0
	a.SocialScore = 65.0
	a.DigitalScore = 55.0
	a.OverallTrustScore = 69.5

	rec := a.Record()

	assert.Equal(t, a.ID, rec.ID)
	assert.Equal(t, "Priya Sharma", rec.Name)
	require.NotNil(t, rec.MonthlyIncome)
	assert.Equal(t, 25000.0, *rec.MonthlyIncome)
	require.NotNil(t, rec.ZCredits)
	assert.Equal(t, 150.0, *rec.ZCredits)

	require.NotNil(t, rec.BehavioralScore)
	assert.Equal(t, 80.0, *rec.BehavioralScore)
	require.NotNil(t, rec.OverallTrustScore)
	assert.Equal(t, 69.5, *rec.OverallTrustScore)

	var payment applicant.PaymentHistory
	require.True(t, rec.UtilityPaymentHistory.Decode(&payment))
	require.NotNil(t, payment.TotalPayments)
	assert.Equal(t, 12.0, *payment.TotalPayments)
	require.NotNil(t, payment.OnTimePayments)
	assert.Equal(t, 11.0, *payment.OnTimePayments)
}

func TestRecordTreatsZeroScoresAsUnscored(t *testing.T) {
	a := NewApplicant(fullRecord())

	rec := a.Record()

	assert.Nil(t, rec.BehavioralScore)
	assert.Nil(t, rec.SocialScore)
	assert.Nil(t, rec.DigitalScore)
	assert.Nil(t, rec.OverallTrustScore)
	assert.True(t, rec.DigitalFootprintData.IsZero())
}

func TestRecordCopiesPointers(t *testing.T) {
	a := NewApplicant(fullRecord())

	rec := a.Record()
	*rec.MonthlyIncome = 99999.0

	assert.Equal(t, 25000.0, *a.MonthlyIncome, "mutating the record must not touch the row")
}

func TestNewConsentLog(t *testing.T) {
	c := NewConsentLog("ap-1", "data_processing", "credit_assessment", true, `{"channel":"app"}`)

	assert.Len(t, c.ID, 36)
	assert.Equal(t, "ap-1", c.ApplicantID)
	assert.Equal(t, "data_processing", c.ConsentType)
	assert.True(t, c.Granted)
	assert.Nil(t, c.WithdrawnAt)
}

func TestNewPrediction(t *testing.T) {
	p := NewPrediction("ap-1", "20240101_120000")

	assert.Len(t, p.ID, 36)
	assert.Equal(t, "ap-1", p.ApplicantID)
	assert.Equal(t, "20240101_120000", p.ModelVersion)
	assert.False(t, p.CreatedAt.IsZero())
}
