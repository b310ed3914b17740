package leaderboard

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zcredlabs/zscore/internal/database"
	"github.com/zcredlabs/zscore/internal/trust"
)

// ErrUnknownPeriod is returned for periods outside the supported set.
var ErrUnknownPeriod = errors.New("unknown leaderboard period")

// Periods the leaderboard is built for, in rebuild order.
var Periods = []string{"daily", "weekly", "monthly", "all_time"}

// allTimeStart anchors the open-ended all_time window.
var allTimeStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Entry is one anonymized row of a period ranking. The applicant ID is
// kept for erasure and rank lookups but never serialized.
type Entry struct {
	ID          string    `json:"id"`
	ApplicantID string    `json:"-"`
	Ref         string    `json:"applicant_ref"`
	DisplayName string    `json:"display_name"`
	Period      string    `json:"period"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Rank        int       `json:"rank"`
	TrustScore  float64   `json:"trust_score"`
	TrustLevel  int       `json:"trust_level"`
	LevelName   string    `json:"level_name"`
	ZCredits    int64     `json:"z_credits"`
	Samples     int       `json:"samples"`
	CreatedAt   time.Time `json:"created_at"`
}

// Standings is the response for leaderboard queries
type Standings struct {
	Entries     []Entry   `json:"entries"`
	Total       int       `json:"total"`
	Period      string    `json:"period"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// Service maintains anonymized trust-score rankings. Only applicants
// holding an active data processing consent are ranked, and entries
// carry a hashed reference instead of any identity field.
type Service struct {
	db    *database.DB
	cache *standingsCache

	stopOnce sync.Once
	stop     chan struct{}
}

// NewService creates a leaderboard service with a 15 minute cache TTL
func NewService(db *database.DB) *Service {
	return NewServiceWithTTL(db, 15*time.Minute)
}

// NewServiceWithTTL creates a leaderboard service with a custom cache TTL
func NewServiceWithTTL(db *database.DB, ttl time.Duration) *Service {
	return &Service{
		db:    db,
		cache: newStandingsCache(ttl),
		stop:  make(chan struct{}),
	}
}

// refFor derives the anonymized reference published in place of the
// applicant ID
func refFor(applicantID string) string {
	hash := sha256.Sum256([]byte(applicantID))
	return hex.EncodeToString(hash[:])
}

// displayNameFor shortens a ref into the handle shown on the board
func displayNameFor(ref string) string {
	return "Member-" + ref[:8]
}

// periodWindow resolves a period name to its current time window
func periodWindow(period string, now time.Time) (time.Time, time.Time, error) {
	switch period {
	case "daily":
		start := now.Truncate(24 * time.Hour)
		return start, start.Add(24*time.Hour - time.Nanosecond), nil
	case "weekly":
		// Weeks start on Monday
		days := (int(now.Weekday()) + 6) % 7
		start := now.AddDate(0, 0, -days).Truncate(24 * time.Hour)
		return start, start.Add(7*24*time.Hour - time.Nanosecond), nil
	case "monthly":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond), nil
	case "all_time":
		return allTimeStart, now, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s", ErrUnknownPeriod, period)
	}
}

// Rebuild recomputes the rankings for every period and invalidates the
// cache. Returns the number of entries written per period.
func (s *Service) Rebuild() (map[string]int, error) {
	now := time.Now()
	written := make(map[string]int, len(Periods))

	for _, period := range Periods {
		n, err := s.rebuildPeriod(period, now)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild %s leaderboard: %w", period, err)
		}
		written[period] = n
	}

	s.cache.Clear()
	slog.Info("Leaderboards rebuilt",
		"daily", written["daily"],
		"weekly", written["weekly"],
		"monthly", written["monthly"],
		"all_time", written["all_time"],
	)

	return written, nil
}

// rebuildPeriod recomputes one period's ranking inside a transaction.
// An applicant's period score is their best trust percentage over the
// window; ties break on scoring activity.
func (s *Service) rebuildPeriod(period string, now time.Time) (int, error) {
	start, end, err := periodWindow(period, now)
	if err != nil {
		return 0, err
	}

	rows, err := s.db.Query(`
		SELECT h.applicant_id, MAX(h.trust_percentage) AS best_score,
			COUNT(*) AS samples, a.z_credits
		FROM trust_score_history h
		JOIN applicants a ON a.id = h.applicant_id
		WHERE h.created_at >= ? AND h.created_at <= ?
			AND EXISTS (
				SELECT 1 FROM consent_logs c
				WHERE c.applicant_id = h.applicant_id
					AND c.consent_type = 'data_processing'
					AND c.granted = 1 AND c.withdrawn_at IS NULL
			)
		GROUP BY h.applicant_id
		ORDER BY best_score DESC, samples DESC
		LIMIT 100
	`, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to query period scores: %w", err)
	}
	defer rows.Close()

	type ranked struct {
		applicantID string
		score       float64
		samples     int
		zCredits    int64
	}

	var candidates []ranked
	for rows.Next() {
		var r ranked
		if err := rows.Scan(&r.applicantID, &r.score, &r.samples, &r.zCredits); err != nil {
			return 0, fmt.Errorf("failed to scan period score: %w", err)
		}
		candidates = append(candidates, r)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin leaderboard transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM leaderboard_entries WHERE period = ? AND period_start = ?`,
		period, start.Format("2006-01-02")); err != nil {
		return 0, fmt.Errorf("failed to clear stale entries: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO leaderboard_entries (
			id, applicant_id, applicant_ref, period, period_start, period_end,
			rank, trust_score, trust_level, z_credits, samples, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range candidates {
		_, err := stmt.Exec(
			uuid.New().String(), r.applicantID, refFor(r.applicantID),
			period, start.Format("2006-01-02"), end.Format("2006-01-02"),
			i+1, r.score, trust.Level(r.score), r.zCredits, r.samples, now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit leaderboard rebuild: %w", err)
	}

	return len(candidates), nil
}

// Standings returns the ranked entries for a period, most trusted first
func (s *Service) Standings(period string, limit int) (*Standings, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	start, _, err := periodWindow(period, time.Now())
	if err != nil {
		return nil, err
	}

	if cached, found := s.cache.GetStandings(period, limit); found {
		return cached, nil
	}

	rows, err := s.db.Query(`
		SELECT id, applicant_ref, period, period_start, period_end,
			rank, trust_score, trust_level, z_credits, samples, created_at
		FROM leaderboard_entries
		WHERE period = ? AND period_start = ?
		ORDER BY rank ASC
		LIMIT ?
	`, period, start.Format("2006-01-02"), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	standings := &Standings{
		Entries: entries,
		Total:   len(entries),
		Period:  period,
	}
	if len(entries) > 0 {
		standings.PeriodStart = entries[0].PeriodStart
		standings.PeriodEnd = entries[0].PeriodEnd
	}

	s.cache.SetStandings(period, limit, standings)

	return standings, nil
}

// ApplicantRank returns the applicant's entry in a period ranking.
// Unranked applicants get sql.ErrNoRows.
func (s *Service) ApplicantRank(applicantID, period string) (*Entry, error) {
	start, _, err := periodWindow(period, time.Now())
	if err != nil {
		return nil, err
	}

	if cached, found := s.cache.GetRank(applicantID, period); found {
		return cached, nil
	}

	row := s.db.QueryRow(`
		SELECT id, applicant_ref, period, period_start, period_end,
			rank, trust_score, trust_level, z_credits, samples, created_at
		FROM leaderboard_entries
		WHERE applicant_id = ? AND period = ? AND period_start = ?
	`, applicantID, period, start.Format("2006-01-02"))

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("applicant %s not ranked in %s period: %w", applicantID, period, sql.ErrNoRows)
		}
		return nil, err
	}
	entry.ApplicantID = applicantID

	s.cache.SetRank(applicantID, period, &entry)

	return &entry, nil
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (Entry, error) {
	var entry Entry
	var startStr, endStr string

	err := row.Scan(
		&entry.ID, &entry.Ref, &entry.Period, &startStr, &endStr,
		&entry.Rank, &entry.TrustScore, &entry.TrustLevel,
		&entry.ZCredits, &entry.Samples, &entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("failed to scan leaderboard entry: %w", err)
	}

	if entry.PeriodStart, err = time.Parse("2006-01-02", startStr); err != nil {
		return Entry{}, fmt.Errorf("failed to parse period start: %w", err)
	}
	if entry.PeriodEnd, err = time.Parse("2006-01-02", endStr); err != nil {
		return Entry{}, fmt.Errorf("failed to parse period end: %w", err)
	}

	entry.DisplayName = displayNameFor(entry.Ref)
	entry.LevelName = trust.LevelDescription(entry.TrustLevel)

	return entry, nil
}

// CacheStats returns leaderboard cache statistics
func (s *Service) CacheStats() map[string]interface{} {
	return s.cache.Stats()
}

// StartAutoRebuild rebuilds the rankings on a fixed interval until Close
func (s *Service) StartAutoRebuild(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.Rebuild(); err != nil {
					slog.Error("Scheduled leaderboard rebuild failed", "error", err)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Close stops the auto-rebuild loop
func (s *Service) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}
