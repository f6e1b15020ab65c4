package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"estate_intel/models"
)

// SQLiteStore keeps the local run history: runs, search attempts, property
// snapshots and run logs.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		identifier TEXT,
		region TEXT,
		target_url TEXT,
		subject_url TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		candidates_found INTEGER,
		comparables INTEGER,
		verdict TEXT,
		diagnosis TEXT
	);

	CREATE TABLE IF NOT EXISTS search_attempts (
		id INTEGER PRIMARY KEY,
		run_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		query TEXT,
		status INTEGER,
		outcome TEXT,
		hits INTEGER,
		detail TEXT,
		timestamp DATETIME,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS property_snapshots (
		id INTEGER PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		run_id TEXT NOT NULL,
		role TEXT NOT NULL,
		url TEXT,
		price REAL,
		cap_rate REAL,
		data JSON,
		scraped_at DATETIME,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS run_logs (
		id INTEGER PRIMARY KEY,
		run_id TEXT,
		timestamp DATETIME,
		level TEXT,
		message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_attempts_provider ON search_attempts(provider, timestamp);
	CREATE INDEX IF NOT EXISTS idx_snapshots_fingerprint ON property_snapshots(fingerprint, scraped_at);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON run_logs(run_id, timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveReport writes the run summary, its attempts and snapshots in one
// transaction.
func (s *SQLiteStore) SaveReport(ctx context.Context, r *models.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	run := models.RunFromReport(r)
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, identifier, region, target_url, subject_url, started_at, finished_at,
			status, candidates_found, comparables, verdict, diagnosis)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Identifier, run.Region, run.TargetURL, run.SubjectURL, run.StartedAt, run.FinishedAt,
		run.Status, run.CandidatesFound, run.Comparables, run.Verdict, run.Diagnosis); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, a := range r.Attempts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO search_attempts (run_id, provider, query, status, outcome, hits, detail, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, a.Provider, a.Query, a.Status, a.Outcome, a.Hits, a.Detail, a.Timestamp); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
	}

	for _, snap := range snapshotsFromReport(r) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO property_snapshots (fingerprint, run_id, role, url, price, cap_rate, data, scraped_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.Fingerprint, snap.RunID, snap.Role, snap.URL, snap.Price, snap.CapRate, string(snap.Data), snap.ScrapedAt); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Log(runID uuid.UUID, level models.LogLevel, message string) error {
	_, err := s.db.Exec(`
		INSERT INTO run_logs (run_id, timestamp, level, message)
		VALUES (?, ?, ?, ?)`,
		runID, time.Now(), level, message)
	return err
}

func (s *SQLiteStore) GetRunLogs(runID uuid.UUID) ([]models.RunLog, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, timestamp, level, message
		FROM run_logs WHERE run_id = ? ORDER BY timestamp, id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.RunLog
	for rows.Next() {
		var l models.RunLog
		if err := rows.Scan(&l.ID, &l.RunID, &l.Timestamp, &l.Level, &l.Message); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *SQLiteStore) GetRecentRuns(limit int) ([]models.AnalysisRun, error) {
	rows, err := s.db.Query(`
		SELECT id, identifier, region, target_url, subject_url, started_at, finished_at,
			status, candidates_found, comparables, verdict, diagnosis
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.AnalysisRun
	for rows.Next() {
		var run models.AnalysisRun
		if err := rows.Scan(&run.ID, &run.Identifier, &run.Region, &run.TargetURL, &run.SubjectURL,
			&run.StartedAt, &run.FinishedAt, &run.Status, &run.CandidatesFound, &run.Comparables,
			&run.Verdict, &run.Diagnosis); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetProviderStats tallies attempt outcomes per provider since the given time.
func (s *SQLiteStore) GetProviderStats(since time.Time) ([]models.ProviderStats, error) {
	rows, err := s.db.Query(`
		SELECT provider, outcome, COUNT(*)
		FROM search_attempts WHERE timestamp >= ?
		GROUP BY provider, outcome`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byProvider := make(map[string]*models.ProviderStats)
	for rows.Next() {
		var provider string
		var outcome models.Outcome
		var count int
		if err := rows.Scan(&provider, &outcome, &count); err != nil {
			return nil, err
		}
		st, ok := byProvider[provider]
		if !ok {
			st = &models.ProviderStats{Provider: provider, Outcomes: make(map[models.Outcome]int)}
			byProvider[provider] = st
		}
		st.Outcomes[outcome] += count
		st.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := make([]models.ProviderStats, 0, len(byProvider))
	for _, st := range byProvider {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Provider < stats[j].Provider })
	return stats, nil
}

// GetPriceHistory returns the snapshots of one property, newest first.
func (s *SQLiteStore) GetPriceHistory(fingerprint string) ([]models.PropertySnapshot, error) {
	rows, err := s.db.Query(`
		SELECT id, fingerprint, run_id, role, url, price, cap_rate, data, scraped_at
		FROM property_snapshots WHERE fingerprint = ?
		ORDER BY scraped_at DESC, id DESC`, fingerprint)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

// GetPriceChanges compares the two most recent subject snapshots of every
// watched property and returns those whose price moved.
func (s *SQLiteStore) GetPriceChanges() ([]models.PriceChange, error) {
	rows, err := s.db.Query(`
		SELECT id, fingerprint, run_id, role, url, price, cap_rate, data, scraped_at
		FROM property_snapshots WHERE role = ? AND price IS NOT NULL
		ORDER BY fingerprint, scraped_at DESC, id DESC`, models.SnapshotRoleSubject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snaps, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}

	var changes []models.PriceChange
	for i := 0; i+1 < len(snaps); i++ {
		cur, prev := snaps[i], snaps[i+1]
		if i > 0 && snaps[i-1].Fingerprint == cur.Fingerprint {
			continue
		}
		if prev.Fingerprint != cur.Fingerprint || *prev.Price == *cur.Price {
			continue
		}
		changes = append(changes, models.PriceChange{
			Fingerprint: cur.Fingerprint,
			URL:         cur.URL,
			OldPrice:    *prev.Price,
			NewPrice:    *cur.Price,
			ChangedAt:   cur.ScrapedAt,
		})
	}
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].ChangedAt.After(changes[j].ChangedAt) })
	return changes, nil
}

func scanSnapshots(rows *sql.Rows) ([]models.PropertySnapshot, error) {
	var snaps []models.PropertySnapshot
	for rows.Next() {
		var snap models.PropertySnapshot
		var data sql.NullString
		if err := rows.Scan(&snap.ID, &snap.Fingerprint, &snap.RunID, &snap.Role, &snap.URL,
			&snap.Price, &snap.CapRate, &data, &snap.ScrapedAt); err != nil {
			return nil, err
		}
		if data.Valid {
			snap.Data = []byte(data.String)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
