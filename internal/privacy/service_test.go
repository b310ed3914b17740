package privacy

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcredlabs/zscore/internal/applicant"
	"github.com/zcredlabs/zscore/internal/database"
)

func newTestService(t *testing.T) (*PrivacyService, *database.Repository) {
	t.Helper()

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := database.NewRepository(db)
	return NewService(repo), repo
}

func storedApplicant(t *testing.T, repo *database.Repository) *database.Applicant {
	t.Helper()

	age := 30.0
	income := 20000.0
	a, err := repo.CreateApplicant(&applicant.Record{
		Name:          "Test Applicant",
		Phone:         "9876543210",
		Age:           &age,
		MonthlyIncome: &income,
	})
	require.NoError(t, err)
	return a
}

func TestRecordAndWithdrawConsent(t *testing.T) {
	svc, repo := newTestService(t)
	a := storedApplicant(t, repo)

	entry, err := svc.RecordConsent(a.ID, ConsentDataProcessing, "", true, map[string]interface{}{
		"channel": "mobile_app",
	})
	require.NoError(t, err)
	assert.Equal(t, "credit_assessment", entry.Purpose)
	assert.Contains(t, entry.ConsentData, "mobile_app")

	active, err := svc.HasProcessingConsent(a.ID)
	require.NoError(t, err)
	assert.True(t, active)

	withdrawn, err := svc.WithdrawConsent(a.ID, ConsentDataProcessing)
	require.NoError(t, err)
	assert.Equal(t, int64(1), withdrawn)

	active, err = svc.HasProcessingConsent(a.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestRecordConsentRejectsUnknownType(t *testing.T) {
	svc, repo := newTestService(t)
	a := storedApplicant(t, repo)

	_, err := svc.RecordConsent(a.ID, "telemetry", "spying", true, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown consent type")

	_, err = svc.WithdrawConsent(a.ID, "telemetry")
	require.Error(t, err)
}

func TestRefusalDoesNotGrantConsent(t *testing.T) {
	svc, repo := newTestService(t)
	a := storedApplicant(t, repo)

	_, err := svc.RecordConsent(a.ID, ConsentSocialProof, "community_scoring", false, nil)
	require.NoError(t, err)

	active, err := repo.HasActiveConsent(a.ID, ConsentSocialProof)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestEraseApplicantData(t *testing.T) {
	svc, repo := newTestService(t)
	a := storedApplicant(t, repo)

	require.NoError(t, repo.UpdateTrustScores(a.ID, 70, 55, 45, 60, 60))
	_, err := svc.RecordConsent(a.ID, ConsentDataProcessing, "", true, nil)
	require.NoError(t, err)

	counts, err := svc.EraseApplicantData(a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["applicants"])
	assert.Equal(t, int64(1), counts["trust_score_history"])
	assert.Equal(t, int64(1), counts["consent_logs"])

	_, err = repo.GetApplicant(a.ID)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestEraseUnknownApplicant(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.EraseApplicantData("no-such-id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestConsentSummary(t *testing.T) {
	svc, repo := newTestService(t)
	a := storedApplicant(t, repo)

	_, err := svc.RecordConsent(a.ID, ConsentDataProcessing, "", true, nil)
	require.NoError(t, err)
	_, err = svc.RecordConsent(a.ID, ConsentUtilityData, "payment_analysis", true, nil)
	require.NoError(t, err)
	_, err = svc.WithdrawConsent(a.ID, ConsentUtilityData)
	require.NoError(t, err)

	summary, err := svc.ConsentSummary(a.ID)
	require.NoError(t, err)

	active, ok := summary["active"].(map[string]bool)
	require.True(t, ok)
	assert.True(t, active[ConsentDataProcessing])
	assert.False(t, active[ConsentUtilityData])
	assert.False(t, active[ConsentSocialProof])
	assert.Equal(t, 2, summary["total_events"])
}

func TestPolicyDocumentShape(t *testing.T) {
	svc, _ := newTestService(t)

	policy := svc.PolicyDocument()
	assert.Contains(t, policy["framework"], "2023")

	rights, ok := policy["rights"].([]string)
	require.True(t, ok)
	assert.Contains(t, rights, "erasure")
	assert.Contains(t, rights, "withdrawal_of_consent")

	retention, ok := policy["retention"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 90, retention["request_log_retention_days"])
}

func TestCleanupExpiredLogs(t *testing.T) {
	svc, repo := newTestService(t)

	client, err := repo.GetOrCreateClient("192.168.1.10", "test-agent/1.0")
	require.NoError(t, err)
	require.NoError(t, repo.LogRequest(client.ID, client.IPAddress, "/api/v1/predict", "POST", "test-agent/1.0"))

	// Fresh logs survive the default window
	purged, err := svc.CleanupExpiredLogs(0)
	require.NoError(t, err)
	assert.Zero(t, purged)

	usage, err := repo.GetWeeklyUsage(client.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.RequestsThisWeek)
}

func TestAnonymizeIdentifierIsStable(t *testing.T) {
	svc, _ := newTestService(t)

	first := svc.AnonymizeIdentifier("9876543210")
	second := svc.AnonymizeIdentifier("9876543210")

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, svc.AnonymizeIdentifier("9876543211"))
}
