package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}
}

// NewDB creates a new database connection with optimized pooling
func NewDB(dataDir string) (*DB, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "applicants.db")

	// WAL for concurrent readers during scoring bursts
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA temp_store = MEMORY",
		"PRAGMA cache_size = 10000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	// Configure connection pooling for better performance
	pool := NewConnectionPool(db, 25, 5, 5*time.Minute) // 25 max open, 5 idle, 5min lifetime

	database := &DB{
		DB:       db,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	// Run migrations
	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize prepared statements
	if err := database.initPreparedStatements(); err != nil {
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Database initialized with connection pooling",
		"path", dbPath,
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns,
		"max_lifetime", pool.maxLifetime)

	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		// Applicants table for credit assessment
		`CREATE TABLE IF NOT EXISTS applicants (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			age REAL,
			gender TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			occupation TEXT NOT NULL DEFAULT '',
			monthly_income REAL,

			behavioral_score REAL NOT NULL DEFAULT 0,
			social_score REAL NOT NULL DEFAULT 0,
			digital_score REAL NOT NULL DEFAULT 0,
			overall_trust_score REAL NOT NULL DEFAULT 0,

			utility_payment_history TEXT NOT NULL DEFAULT '', -- JSON
			social_proof_data TEXT NOT NULL DEFAULT '', -- JSON
			digital_footprint TEXT NOT NULL DEFAULT '', -- JSON

			credit_application_status TEXT NOT NULL DEFAULT 'not_applied',
			credit_limit REAL NOT NULL DEFAULT 0,
			risk_category TEXT NOT NULL DEFAULT '',
			ml_prediction_score REAL NOT NULL DEFAULT 0,

			z_credits INTEGER NOT NULL DEFAULT 0,

			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		// Trust score progression per applicant
		`CREATE TABLE IF NOT EXISTS trust_score_history (
			id TEXT PRIMARY KEY,
			applicant_id TEXT NOT NULL,
			behavioral_score REAL NOT NULL,
			social_score REAL NOT NULL,
			digital_score REAL NOT NULL,
			overall_trust_score REAL NOT NULL,
			trust_percentage REAL NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (applicant_id) REFERENCES applicants(id)
		)`,

		// Risk prediction audit log
		`CREATE TABLE IF NOT EXISTS ml_predictions (
			id TEXT PRIMARY KEY,
			applicant_id TEXT NOT NULL,
			model_version TEXT NOT NULL,
			input_features TEXT NOT NULL DEFAULT '', -- JSON
			prediction_score REAL NOT NULL,
			risk_probability REAL NOT NULL,
			risk_category TEXT NOT NULL DEFAULT '',
			explanation TEXT NOT NULL DEFAULT '', -- JSON
			created_at DATETIME NOT NULL,
			FOREIGN KEY (applicant_id) REFERENCES applicants(id)
		)`,

		// Consent tracking for DPDPA compliance
		`CREATE TABLE IF NOT EXISTS consent_logs (
			id TEXT PRIMARY KEY,
			applicant_id TEXT NOT NULL,
			consent_type TEXT NOT NULL,
			purpose TEXT NOT NULL,
			granted BOOLEAN NOT NULL,
			consent_data TEXT NOT NULL DEFAULT '', -- JSON
			created_at DATETIME NOT NULL,
			withdrawn_at DATETIME,
			FOREIGN KEY (applicant_id) REFERENCES applicants(id)
		)`,

		// API clients table
		`CREATE TABLE IF NOT EXISTS clients (
			id TEXT PRIMARY KEY,
			ip_address TEXT NOT NULL,
			user_agent TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		// Request logs table for quota accounting
		`CREATE TABLE IF NOT EXISTS request_logs (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			ip_address TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			method TEXT NOT NULL,
			user_agent TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (client_id) REFERENCES clients(id)
		)`,

		// Anonymized trust-score rankings per period
		`CREATE TABLE IF NOT EXISTS leaderboard_entries (
			id TEXT PRIMARY KEY,
			applicant_id TEXT NOT NULL,
			applicant_ref TEXT NOT NULL,
			period TEXT NOT NULL,
			period_start TEXT NOT NULL,
			period_end TEXT NOT NULL,
			rank INTEGER NOT NULL,
			trust_score REAL NOT NULL,
			trust_level INTEGER NOT NULL,
			z_credits INTEGER NOT NULL DEFAULT 0,
			samples INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (applicant_id) REFERENCES applicants(id)
		)`,

		// Indexes for performance
		`CREATE INDEX IF NOT EXISTS idx_applicants_phone ON applicants(phone)`,
		`CREATE INDEX IF NOT EXISTS idx_applicants_created ON applicants(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_trust_history_applicant ON trust_score_history(applicant_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_applicant ON ml_predictions(applicant_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_version ON ml_predictions(model_version)`,
		`CREATE INDEX IF NOT EXISTS idx_consent_applicant ON consent_logs(applicant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_ip ON clients(ip_address)`,
		`CREATE INDEX IF NOT EXISTS idx_request_logs_client ON request_logs(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_request_logs_created ON request_logs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_period ON leaderboard_entries(period, period_start, rank)`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_applicant ON leaderboard_entries(applicant_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// initPreparedStatements initializes frequently used prepared statements
func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		"get_applicant": `SELECT id, name, phone, email, age, gender, location, occupation, monthly_income,
			behavioral_score, social_score, digital_score, overall_trust_score,
			utility_payment_history, social_proof_data, digital_footprint,
			credit_application_status, credit_limit, risk_category, ml_prediction_score,
			z_credits, created_at, updated_at
			FROM applicants WHERE id = ?`,

		"insert_trust_entry": `INSERT INTO trust_score_history (
			id, applicant_id, behavioral_score, social_score, digital_score,
			overall_trust_score, trust_percentage, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,

		"insert_prediction": `INSERT INTO ml_predictions (
			id, applicant_id, model_version, input_features, prediction_score,
			risk_probability, risk_category, explanation, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,

		"insert_request_log": `INSERT INTO request_logs (id, client_id, ip_address, endpoint, method, user_agent, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,

		"get_client_by_ip": `SELECT id, ip_address, user_agent, created_at, updated_at
			FROM clients WHERE ip_address = ? ORDER BY created_at DESC LIMIT 1`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt

		slog.Debug("Prepared statement initialized", "name", name)
	}

	return nil
}

// GetPreparedStatement retrieves a prepared statement
func (db *DB) GetPreparedStatement(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stmt, exists := db.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}

	return stmt, nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// Close closes the database connection and prepared statements
func (db *DB) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	// Close all prepared statements
	for name, stmt := range db.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}

	// Clear the map
	db.prepared = make(map[string]*sql.Stmt)

	// Close the database connection
	return db.DB.Close()
}
