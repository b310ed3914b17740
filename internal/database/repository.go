package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zcredlabs/zscore/internal/applicant"
	"github.com/zcredlabs/zscore/internal/resilience"
)

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// execWithRetry runs a write statement, retrying on transient sqlite errors
func (r *Repository) execWithRetry(query string, args ...interface{}) (sql.Result, error) {
	var result sql.Result
	err := resilience.RetryWithConfig(context.Background(), resilience.SQLiteRetryConfig(), func() error {
		var execErr error
		result, execErr = r.db.Exec(query, args...)
		return execErr
	})
	return result, err
}

// withTx runs fn inside a transaction, retrying the whole unit on lock contention
func (r *Repository) withTx(fn func(tx *sql.Tx) error) error {
	return resilience.RetryWithConfig(context.Background(), resilience.SQLiteRetryConfig(), func() error {
		tx, err := r.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				return fmt.Errorf("rollback failed after %v: %w", err, rbErr)
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// CreateApplicant stores a new applicant from an intake record
func (r *Repository) CreateApplicant(rec *applicant.Record) (*Applicant, error) {
	a := NewApplicant(rec)

	_, err := r.execWithRetry(`
		INSERT INTO applicants (
			id, name, phone, email, age, gender, location, occupation, monthly_income,
			behavioral_score, social_score, digital_score, overall_trust_score,
			utility_payment_history, social_proof_data, digital_footprint,
			credit_application_status, credit_limit, risk_category, ml_prediction_score,
			z_credits, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Name, a.Phone, a.Email, a.Age, a.Gender, a.Location, a.Occupation, a.MonthlyIncome,
		a.BehavioralScore, a.SocialScore, a.DigitalScore, a.OverallTrustScore,
		a.PaymentHistory, a.SocialProof, a.DigitalFootprint,
		a.ApplicationStatus, a.CreditLimit, a.RiskCategory, a.RiskScore,
		a.ZCredits, a.CreatedAt, a.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create applicant: %w", err)
	}

	return a, nil
}

// GetApplicant retrieves an applicant by ID
func (r *Repository) GetApplicant(id string) (*Applicant, error) {
	stmt, err := r.db.GetPreparedStatement("get_applicant")
	if err != nil {
		return nil, err
	}

	a, err := scanApplicant(stmt.QueryRow(id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("applicant %s: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get applicant: %w", err)
	}

	return a, nil
}

// GetApplicantByPhone retrieves an applicant by phone number
func (r *Repository) GetApplicantByPhone(phone string) (*Applicant, error) {
	a, err := scanApplicant(r.db.QueryRow(`
		SELECT id, name, phone, email, age, gender, location, occupation, monthly_income,
			behavioral_score, social_score, digital_score, overall_trust_score,
			utility_payment_history, social_proof_data, digital_footprint,
			credit_application_status, credit_limit, risk_category, ml_prediction_score,
			z_credits, created_at, updated_at
		FROM applicants
		WHERE phone = ?
	`, phone))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("applicant with phone %s: %w", phone, sql.ErrNoRows)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get applicant by phone: %w", err)
	}

	return a, nil
}

// UpdateApplicant replaces the intake fields of an existing applicant.
// Scoring-owned columns (trust scores, risk, credits) are not touched.
func (r *Repository) UpdateApplicant(id string, rec *applicant.Record) (*Applicant, error) {
	a, err := r.GetApplicant(id)
	if err != nil {
		return nil, err
	}

	a.ApplyRecord(rec)

	result, err := r.execWithRetry(`
		UPDATE applicants SET
			name = ?, phone = ?, email = ?, age = ?, gender = ?, location = ?, occupation = ?,
			monthly_income = ?, utility_payment_history = ?, social_proof_data = ?,
			digital_footprint = ?, updated_at = ?
		WHERE id = ?
	`, a.Name, a.Phone, a.Email, a.Age, a.Gender, a.Location, a.Occupation,
		a.MonthlyIncome, a.PaymentHistory, a.SocialProof, a.DigitalFootprint, a.UpdatedAt, id)

	if err != nil {
		return nil, fmt.Errorf("failed to update applicant: %w", err)
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, fmt.Errorf("applicant %s: %w", id, sql.ErrNoRows)
	}

	return a, nil
}

// ListApplicants returns applicants ordered by creation time, newest first
func (r *Repository) ListApplicants(limit, offset int) ([]*Applicant, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(`
		SELECT id, name, phone, email, age, gender, location, occupation, monthly_income,
			behavioral_score, social_score, digital_score, overall_trust_score,
			utility_payment_history, social_proof_data, digital_footprint,
			credit_application_status, credit_limit, risk_category, ml_prediction_score,
			z_credits, created_at, updated_at
		FROM applicants
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}
	defer rows.Close()

	var applicants []*Applicant
	for rows.Next() {
		a, err := scanApplicant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan applicant: %w", err)
		}
		applicants = append(applicants, a)
	}

	return applicants, rows.Err()
}

// scoreEventCredits is the z_credit award for each scoring event. Credits
// accumulate toward leaderboard standing and level milestones.
const scoreEventCredits = 10

// UpdateTrustScores writes new component scores to the applicant, credits
// the scoring event, and appends a history entry in the same transaction
func (r *Repository) UpdateTrustScores(id string, behavioral, social, digital, overall, pct float64) error {
	return r.withTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE applicants SET
				behavioral_score = ?, social_score = ?, digital_score = ?,
				overall_trust_score = ?, z_credits = z_credits + ?, updated_at = ?
			WHERE id = ?
		`, behavioral, social, digital, overall, scoreEventCredits, time.Now(), id)
		if err != nil {
			return fmt.Errorf("failed to update trust scores: %w", err)
		}

		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("applicant %s: %w", id, sql.ErrNoRows)
		}

		stmt, err := r.db.GetPreparedStatement("insert_trust_entry")
		if err != nil {
			return err
		}

		entry := NewTrustScoreEntry(id, behavioral, social, digital, overall, pct)
		_, err = tx.Stmt(stmt).Exec(entry.ID, entry.ApplicantID, entry.BehavioralScore,
			entry.SocialScore, entry.DigitalScore, entry.OverallScore,
			entry.TrustPercentage, entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert trust history entry: %w", err)
		}

		return nil
	})
}

// GetTrustHistory returns the most recent trust score entries for an applicant
func (r *Repository) GetTrustHistory(applicantID string, limit int) ([]*TrustScoreEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, applicant_id, behavioral_score, social_score, digital_score,
			overall_trust_score, trust_percentage, created_at
		FROM trust_score_history
		WHERE applicant_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, applicantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get trust history: %w", err)
	}
	defer rows.Close()

	var entries []*TrustScoreEntry
	for rows.Next() {
		var e TrustScoreEntry
		if err := rows.Scan(&e.ID, &e.ApplicantID, &e.BehavioralScore, &e.SocialScore,
			&e.DigitalScore, &e.OverallScore, &e.TrustPercentage, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trust history entry: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// SavePrediction appends an audit row and mirrors the latest risk outcome
// onto the applicant in one transaction
func (r *Repository) SavePrediction(p *Prediction) error {
	return r.withTx(func(tx *sql.Tx) error {
		stmt, err := r.db.GetPreparedStatement("insert_prediction")
		if err != nil {
			return err
		}

		_, err = tx.Stmt(stmt).Exec(p.ID, p.ApplicantID, p.ModelVersion, p.InputFeatures,
			p.Score, p.RiskProbability, p.RiskCategory, p.Explanation, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert prediction: %w", err)
		}

		result, err := tx.Exec(`
			UPDATE applicants SET ml_prediction_score = ?, risk_category = ?, updated_at = ?
			WHERE id = ?
		`, p.Score, p.RiskCategory, time.Now(), p.ApplicantID)
		if err != nil {
			return fmt.Errorf("failed to update applicant risk outcome: %w", err)
		}

		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("applicant %s: %w", p.ApplicantID, sql.ErrNoRows)
		}

		return nil
	})
}

// GetPredictions returns the most recent prediction audit rows for an applicant
func (r *Repository) GetPredictions(applicantID string, limit int) ([]*Prediction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, applicant_id, model_version, input_features, prediction_score,
			risk_probability, risk_category, explanation, created_at
		FROM ml_predictions
		WHERE applicant_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, applicantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*Prediction
	for rows.Next() {
		var p Prediction
		if err := rows.Scan(&p.ID, &p.ApplicantID, &p.ModelVersion, &p.InputFeatures,
			&p.Score, &p.RiskProbability, &p.RiskCategory, &p.Explanation, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, &p)
	}

	return predictions, rows.Err()
}

// LogConsent records a consent grant or refusal
func (r *Repository) LogConsent(c *ConsentLog) error {
	_, err := r.execWithRetry(`
		INSERT INTO consent_logs (id, applicant_id, consent_type, purpose, granted, consent_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.ApplicantID, c.ConsentType, c.Purpose, c.Granted, c.ConsentData, c.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to log consent: %w", err)
	}

	return nil
}

// WithdrawConsent marks all active grants of a consent type as withdrawn.
// Returns the number of grants affected.
func (r *Repository) WithdrawConsent(applicantID, consentType string) (int64, error) {
	result, err := r.execWithRetry(`
		UPDATE consent_logs SET withdrawn_at = ?
		WHERE applicant_id = ? AND consent_type = ? AND withdrawn_at IS NULL
	`, time.Now(), applicantID, consentType)

	if err != nil {
		return 0, fmt.Errorf("failed to withdraw consent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count withdrawn consents: %w", err)
	}

	return rows, nil
}

// GetConsents returns the full consent trail for an applicant, newest first
func (r *Repository) GetConsents(applicantID string) ([]*ConsentLog, error) {
	rows, err := r.db.Query(`
		SELECT id, applicant_id, consent_type, purpose, granted, consent_data, created_at, withdrawn_at
		FROM consent_logs
		WHERE applicant_id = ?
		ORDER BY created_at DESC
	`, applicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get consents: %w", err)
	}
	defer rows.Close()

	var consents []*ConsentLog
	for rows.Next() {
		var c ConsentLog
		var withdrawn sql.NullTime
		if err := rows.Scan(&c.ID, &c.ApplicantID, &c.ConsentType, &c.Purpose,
			&c.Granted, &c.ConsentData, &c.CreatedAt, &withdrawn); err != nil {
			return nil, fmt.Errorf("failed to scan consent log: %w", err)
		}
		if withdrawn.Valid {
			c.WithdrawnAt = &withdrawn.Time
		}
		consents = append(consents, &c)
	}

	return consents, rows.Err()
}

// HasActiveConsent reports whether the applicant has an unwithdrawn grant
// of the given consent type
func (r *Repository) HasActiveConsent(applicantID, consentType string) (bool, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM consent_logs
		WHERE applicant_id = ? AND consent_type = ? AND granted = 1 AND withdrawn_at IS NULL
	`, applicantID, consentType).Scan(&count)

	if err != nil {
		return false, fmt.Errorf("failed to check consent: %w", err)
	}

	return count > 0, nil
}

// EraseApplicant deletes an applicant and every row derived from their data.
// Returns per-table deletion counts for the erasure receipt.
func (r *Repository) EraseApplicant(applicantID string) (map[string]int64, error) {
	counts := make(map[string]int64)

	err := r.withTx(func(tx *sql.Tx) error {
		tables := []string{"ml_predictions", "trust_score_history", "consent_logs", "leaderboard_entries"}
		for _, table := range tables {
			result, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE applicant_id = ?", table), applicantID)
			if err != nil {
				return fmt.Errorf("failed to erase %s: %w", table, err)
			}
			counts[table], _ = result.RowsAffected()
		}

		result, err := tx.Exec("DELETE FROM applicants WHERE id = ?", applicantID)
		if err != nil {
			return fmt.Errorf("failed to erase applicant: %w", err)
		}

		deleted, _ := result.RowsAffected()
		if deleted == 0 {
			return fmt.Errorf("applicant %s: %w", applicantID, sql.ErrNoRows)
		}
		counts["applicants"] = deleted

		return nil
	})
	if err != nil {
		return nil, err
	}

	return counts, nil
}

// GetOrCreateClient gets an existing API client or creates a new one based on IP address
func (r *Repository) GetOrCreateClient(ipAddress, userAgent string) (*Client, error) {
	stmt, err := r.db.GetPreparedStatement("get_client_by_ip")
	if err != nil {
		return nil, err
	}

	var client Client
	err = stmt.QueryRow(ipAddress).Scan(
		&client.ID, &client.IPAddress, &client.UserAgent, &client.CreatedAt, &client.UpdatedAt,
	)

	if err == nil {
		// Client exists, update last seen
		_, err = r.execWithRetry(`
			UPDATE clients SET updated_at = ?, user_agent = ? WHERE id = ?
		`, time.Now(), userAgent, client.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to update client: %w", err)
		}
		return &client, nil
	}

	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query client: %w", err)
	}

	// Client doesn't exist, create new one
	client = *NewClient(ipAddress, userAgent)
	_, err = r.execWithRetry(`
		INSERT INTO clients (id, ip_address, user_agent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, client.ID, client.IPAddress, client.UserAgent, client.CreatedAt, client.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &client, nil
}

// LogRequest logs an API request against a client's quota
func (r *Repository) LogRequest(clientID, ipAddress, endpoint, method, userAgent string) error {
	stmt, err := r.db.GetPreparedStatement("insert_request_log")
	if err != nil {
		return err
	}

	reqLog := NewRequestLog(clientID, ipAddress, endpoint, method, userAgent)
	_, err = stmt.Exec(reqLog.ID, reqLog.ClientID, reqLog.IPAddress,
		reqLog.Endpoint, reqLog.Method, reqLog.UserAgent, reqLog.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to log request: %w", err)
	}

	return nil
}

// GetWeeklyUsage gets usage statistics for a client for the current week
func (r *Repository) GetWeeklyUsage(clientID string) (*UsageStats, error) {
	now := time.Now()

	// Get the start of the current week (Monday)
	weekStart := now.AddDate(0, 0, -int(now.Weekday()-time.Monday))
	if now.Weekday() == time.Sunday {
		weekStart = weekStart.AddDate(0, 0, -7)
	}
	weekStart = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, weekStart.Location())

	weekEnd := weekStart.AddDate(0, 0, 7)

	var requestCount int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM request_logs
		WHERE client_id = ? AND created_at >= ? AND created_at < ?
	`, clientID, weekStart, weekEnd).Scan(&requestCount)

	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}

	return &UsageStats{
		ClientID:         clientID,
		RequestsThisWeek: requestCount,
		WeekStart:        weekStart,
		WeekEnd:          weekEnd,
	}, nil
}

// CanMakeRequest checks if a client is within its weekly scoring quota
func (r *Repository) CanMakeRequest(clientID string, weeklyLimit int) (bool, *UsageStats, error) {
	usage, err := r.GetWeeklyUsage(clientID)
	if err != nil {
		return false, nil, err
	}

	if weeklyLimit <= 0 {
		return true, usage, nil
	}

	return usage.RequestsThisWeek < weeklyLimit, usage, nil
}

// PurgeRequestLogsBefore deletes request logs older than the cutoff.
// Used by the retention sweep.
func (r *Repository) PurgeRequestLogsBefore(cutoff time.Time) (int64, error) {
	result, err := r.execWithRetry(`DELETE FROM request_logs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge request logs: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged logs: %w", err)
	}

	return rows, nil
}

func scanApplicant(row rowScanner) (*Applicant, error) {
	var a Applicant
	var age, income sql.NullFloat64

	err := row.Scan(
		&a.ID, &a.Name, &a.Phone, &a.Email, &age, &a.Gender, &a.Location, &a.Occupation, &income,
		&a.BehavioralScore, &a.SocialScore, &a.DigitalScore, &a.OverallTrustScore,
		&a.PaymentHistory, &a.SocialProof, &a.DigitalFootprint,
		&a.ApplicationStatus, &a.CreditLimit, &a.RiskCategory, &a.RiskScore,
		&a.ZCredits, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if age.Valid {
		a.Age = &age.Float64
	}
	if income.Valid {
		a.MonthlyIncome = &income.Float64
	}

	return &a, nil
}
