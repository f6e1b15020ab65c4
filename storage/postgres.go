package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"estate_intel/models"
)

// PostgresStore mirrors run history into a shared Postgres database so
// several machines running watch mode report into one place.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id UUID PRIMARY KEY,
		identifier TEXT,
		region TEXT,
		target_url TEXT,
		subject_url TEXT,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		status TEXT,
		candidates_found INTEGER,
		comparables INTEGER,
		verdict TEXT,
		diagnosis TEXT
	);

	CREATE TABLE IF NOT EXISTS search_attempts (
		id BIGSERIAL PRIMARY KEY,
		run_id UUID NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
		provider TEXT NOT NULL,
		query TEXT,
		status INTEGER,
		outcome TEXT,
		hits INTEGER,
		detail TEXT,
		timestamp TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS property_snapshots (
		id BIGSERIAL PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		run_id UUID NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		url TEXT,
		price DOUBLE PRECISION,
		cap_rate DOUBLE PRECISION,
		data JSONB,
		scraped_at TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_pg_snapshots_fingerprint ON property_snapshots(fingerprint, scraped_at);
	CREATE INDEX IF NOT EXISTS idx_pg_attempts_provider ON search_attempts(provider, timestamp);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// =============================================================================
// Reports
// =============================================================================

func (s *PostgresStore) SaveReport(ctx context.Context, r *models.Report) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	run := models.RunFromReport(r)
	query := `
		INSERT INTO analysis_runs (
			id, identifier, region, target_url, subject_url, started_at, finished_at,
			status, candidates_found, comparables, verdict, diagnosis
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			subject_url = EXCLUDED.subject_url,
			finished_at = EXCLUDED.finished_at,
			status = EXCLUDED.status,
			candidates_found = EXCLUDED.candidates_found,
			comparables = EXCLUDED.comparables,
			verdict = EXCLUDED.verdict,
			diagnosis = EXCLUDED.diagnosis`
	if _, err := tx.Exec(ctx, query,
		run.ID, run.Identifier, run.Region, run.TargetURL, run.SubjectURL, run.StartedAt, run.FinishedAt,
		string(run.Status), run.CandidatesFound, run.Comparables, run.Verdict, run.Diagnosis,
	); err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, a := range r.Attempts {
		batch.Queue(`
			INSERT INTO search_attempts (run_id, provider, query, status, outcome, hits, detail, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.RunID, a.Provider, a.Query, a.Status, string(a.Outcome), a.Hits, a.Detail, a.Timestamp)
	}
	for _, snap := range snapshotsFromReport(r) {
		batch.Queue(`
			INSERT INTO property_snapshots (fingerprint, run_id, role, url, price, cap_rate, data, scraped_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			snap.Fingerprint, snap.RunID, snap.Role, snap.URL, snap.Price, snap.CapRate, []byte(snap.Data), snap.ScrapedAt)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert attempts and snapshots: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// =============================================================================
// History Queries
// =============================================================================

func (s *PostgresStore) GetRecentRuns(ctx context.Context, limit int) ([]models.AnalysisRun, error) {
	query := `
		SELECT id, identifier, region, target_url, subject_url, started_at, finished_at,
			status, candidates_found, comparables, verdict, diagnosis
		FROM analysis_runs
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.AnalysisRun
	for rows.Next() {
		var run models.AnalysisRun
		var status string
		if err := rows.Scan(
			&run.ID, &run.Identifier, &run.Region, &run.TargetURL, &run.SubjectURL, &run.StartedAt, &run.FinishedAt,
			&status, &run.CandidatesFound, &run.Comparables, &run.Verdict, &run.Diagnosis,
		); err != nil {
			return nil, err
		}
		run.Status = models.RunStatus(status)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
