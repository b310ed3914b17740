package leaderboard

import (
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zcredlabs/zscore/internal/applicant"
	"github.com/zcredlabs/zscore/internal/database"
	"github.com/zcredlabs/zscore/internal/trust"
)

func newTestService(t *testing.T) (*Service, *database.Repository) {
	t.Helper()

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewService(db)
	t.Cleanup(svc.Close)

	return svc, database.NewRepository(db)
}

// rankedApplicant stores an applicant with processing consent and one
// scoring event at the given trust percentage
func rankedApplicant(t *testing.T, repo *database.Repository, phone string, pct float64) string {
	t.Helper()

	age := 30.0
	income := 25000.0
	created, err := repo.CreateApplicant(&applicant.Record{
		Name:          "Test Applicant " + phone,
		Phone:         phone,
		Age:           &age,
		MonthlyIncome: &income,
	})
	require.NoError(t, err)

	require.NoError(t, repo.LogConsent(
		database.NewConsentLog(created.ID, "data_processing", "credit_assessment", true, "")))

	overall := pct / 100
	require.NoError(t, repo.UpdateTrustScores(created.ID, overall, overall, overall, overall, pct))

	return created.ID
}

func TestRebuildRanksByBestScore(t *testing.T) {
	svc, repo := newTestService(t)

	low := rankedApplicant(t, repo, "9000000001", 44)
	high := rankedApplicant(t, repo, "9000000002", 82)
	mid := rankedApplicant(t, repo, "9000000003", 67)

	written, err := svc.Rebuild()
	require.NoError(t, err)
	assert.Equal(t, 3, written["weekly"])
	assert.Equal(t, 3, written["all_time"])

	standings, err := svc.Standings("weekly", 50)
	require.NoError(t, err)
	require.Equal(t, 3, standings.Total)

	assert.Equal(t, 1, standings.Entries[0].Rank)
	assert.Equal(t, 82.0, standings.Entries[0].TrustScore)
	assert.Equal(t, refFor(high), standings.Entries[0].Ref)
	assert.Equal(t, 2, standings.Entries[1].Rank)
	assert.Equal(t, refFor(mid), standings.Entries[1].Ref)
	assert.Equal(t, 3, standings.Entries[2].Rank)
	assert.Equal(t, refFor(low), standings.Entries[2].Ref)

	top := standings.Entries[0]
	assert.Len(t, top.Ref, 64)
	assert.Equal(t, "Member-"+top.Ref[:8], top.DisplayName)
	assert.Equal(t, trust.Level(82), top.TrustLevel)
	assert.Equal(t, trust.LevelDescription(top.TrustLevel), top.LevelName)
	assert.Equal(t, int64(10), top.ZCredits, "one scoring event credited")
	assert.Equal(t, 1, top.Samples)
	assert.Equal(t, "weekly", top.Period)
	assert.False(t, top.PeriodStart.After(time.Now()))
}

func TestRebuildUsesBestScoreAndCountsSamples(t *testing.T) {
	svc, repo := newTestService(t)

	id := rankedApplicant(t, repo, "9000000001", 55)
	require.NoError(t, repo.UpdateTrustScores(id, 0.71, 0.71, 0.71, 0.71, 71))
	require.NoError(t, repo.UpdateTrustScores(id, 0.63, 0.63, 0.63, 0.63, 63))

	_, err := svc.Rebuild()
	require.NoError(t, err)

	entry, err := svc.ApplicantRank(id, "daily")
	require.NoError(t, err)
	assert.Equal(t, 71.0, entry.TrustScore, "best score over the window wins")
	assert.Equal(t, 3, entry.Samples)
	assert.Equal(t, int64(30), entry.ZCredits)
}

func TestRebuildExcludesApplicantsWithoutConsent(t *testing.T) {
	svc, repo := newTestService(t)

	rankedApplicant(t, repo, "9000000001", 70)

	// Scored but never consented to data processing
	age := 26.0
	silent, err := repo.CreateApplicant(&applicant.Record{Name: "No Consent", Phone: "9000000002", Age: &age})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateTrustScores(silent.ID, 0.9, 0.9, 0.9, 0.9, 90))

	_, err = svc.Rebuild()
	require.NoError(t, err)

	standings, err := svc.Standings("all_time", 50)
	require.NoError(t, err)
	require.Equal(t, 1, standings.Total)
	assert.NotEqual(t, refFor(silent.ID), standings.Entries[0].Ref)

	_, err = svc.ApplicantRank(silent.ID, "all_time")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestRebuildExcludesWithdrawnConsent(t *testing.T) {
	svc, repo := newTestService(t)

	id := rankedApplicant(t, repo, "9000000001", 70)

	_, err := svc.Rebuild()
	require.NoError(t, err)

	entry, err := svc.ApplicantRank(id, "weekly")
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Rank)

	withdrawn, err := repo.WithdrawConsent(id, "data_processing")
	require.NoError(t, err)
	require.Equal(t, int64(1), withdrawn)

	written, err := svc.Rebuild()
	require.NoError(t, err)
	assert.Equal(t, 0, written["weekly"])

	_, err = svc.ApplicantRank(id, "weekly")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestStandingsRespectsLimit(t *testing.T) {
	svc, repo := newTestService(t)

	rankedApplicant(t, repo, "9000000001", 44)
	rankedApplicant(t, repo, "9000000002", 82)
	rankedApplicant(t, repo, "9000000003", 67)

	_, err := svc.Rebuild()
	require.NoError(t, err)

	standings, err := svc.Standings("monthly", 1)
	require.NoError(t, err)
	require.Equal(t, 1, standings.Total)
	assert.Equal(t, 1, standings.Entries[0].Rank)
	assert.Equal(t, 82.0, standings.Entries[0].TrustScore)
}

func TestStandingsUnknownPeriod(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Standings("hourly", 10)
	assert.True(t, errors.Is(err, ErrUnknownPeriod))

	_, err = svc.ApplicantRank("some-id", "fortnightly")
	assert.True(t, errors.Is(err, ErrUnknownPeriod))
}

func TestStandingsServedFromCacheBetweenRebuilds(t *testing.T) {
	svc, repo := newTestService(t)

	rankedApplicant(t, repo, "9000000001", 70)

	_, err := svc.Rebuild()
	require.NoError(t, err)

	first, err := svc.Standings("weekly", 50)
	require.NoError(t, err)
	require.Equal(t, 1, first.Total)

	// Wipe the table behind the cache's back; the cached board survives
	_, err = svc.db.Exec("DELETE FROM leaderboard_entries")
	require.NoError(t, err)

	cached, err := svc.Standings("weekly", 50)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Total)

	// A rebuild clears the cache and re-reads the recomputed board
	_, err = svc.Rebuild()
	require.NoError(t, err)

	rebuilt, err := svc.Standings("weekly", 50)
	require.NoError(t, err)
	assert.Equal(t, 1, rebuilt.Total, "history still present, board recomputed")
}

func TestEntrySerializationHidesApplicantID(t *testing.T) {
	svc, repo := newTestService(t)

	id := rankedApplicant(t, repo, "9000000001", 70)

	_, err := svc.Rebuild()
	require.NoError(t, err)

	entry, err := svc.ApplicantRank(id, "all_time")
	require.NoError(t, err)
	assert.Equal(t, id, entry.ApplicantID)

	data, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.NotContains(t, string(data), id)
	assert.Contains(t, string(data), entry.Ref)
	assert.Contains(t, string(data), "display_name")
}

func TestErasedApplicantDropsFromBoard(t *testing.T) {
	svc, repo := newTestService(t)

	keep := rankedApplicant(t, repo, "9000000001", 60)
	erase := rankedApplicant(t, repo, "9000000002", 90)

	_, err := svc.Rebuild()
	require.NoError(t, err)

	counts, err := repo.EraseApplicant(erase)
	require.NoError(t, err)
	assert.Equal(t, int64(len(Periods)), counts["leaderboard_entries"], "ranked once per period")

	_, err = svc.Rebuild()
	require.NoError(t, err)

	standings, err := svc.Standings("all_time", 50)
	require.NoError(t, err)
	require.Equal(t, 1, standings.Total)
	assert.Equal(t, refFor(keep), standings.Entries[0].Ref)
	assert.Equal(t, 1, standings.Entries[0].Rank)
}

func TestPeriodWindows(t *testing.T) {
	wednesday := time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 3, 17, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		period    string
		now       time.Time
		wantStart string
	}{
		{"daily truncates to midnight", "daily", wednesday, "2024-03-13"},
		{"weekly starts on Monday", "weekly", wednesday, "2024-03-11"},
		{"weekly covers trailing Sunday", "weekly", sunday, "2024-03-11"},
		{"monthly starts on the first", "monthly", wednesday, "2024-03-01"},
		{"all_time is anchored", "all_time", wednesday, "2024-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := periodWindow(tt.period, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start.Format("2006-01-02"))
			assert.True(t, end.After(start))
		})
	}

	_, _, err := periodWindow("hourly", wednesday)
	assert.True(t, errors.Is(err, ErrUnknownPeriod))
}
