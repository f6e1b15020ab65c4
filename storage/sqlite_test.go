package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"estate_intel/identity"
	"estate_intel/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "estate.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testReport(price float64, at time.Time) *models.Report {
	status := 403
	subject := &models.PropertyRecord{
		Identifier: "A123",
		Region:     "TX",
		SourceURL:  "https://www.example-realty.com/listing/123",
		Street:     "123 Main St",
		City:       "Austin",
		State:      "TX",
		Price:      models.FloatPtr(price),
		Bedrooms:   models.FloatPtr(3),
		LivingArea: models.FloatPtr(1800),
		ScrapedAt:  at,
	}
	return &models.Report{
		RunID:      uuid.New(),
		Identifier: "A123",
		Region:     "TX",
		Subject:    subject,
		Metrics:    &models.ExecutiveMetrics{CapRate: models.FloatPtr(0.044)},
		Decision:   &models.Decision{Verdict: models.VerdictNeedsReview, Score: 1},
		Comparables: models.ComparableTable{
			Columns: models.ComparableColumns,
			Rows: []models.ComparableRow{
				{URL: "https://listings.example.com/homes/77", Price: models.FloatPtr(620000)},
			},
		},
		Candidates: []models.Candidate{{URL: subject.SourceURL, Score: 60, Provider: "bing"}},
		Attempts: []models.SearchAttempt{
			{Provider: "duckduckgo", Query: "A123", Status: &status, Outcome: models.OutcomeBlocked, Timestamp: at},
			{Provider: "bing", Query: "A123", Outcome: models.OutcomeOK, Hits: 1, Timestamp: at},
			{Provider: "bing_rss", Query: "A123", Outcome: models.OutcomeNoResults, Timestamp: at},
			{Provider: "bing", Query: "MLS A123", Outcome: models.OutcomeOK, Hits: 1, Timestamp: at},
		},
		StartedAt:  at,
		FinishedAt: at.Add(time.Second),
	}
}

func TestSQLiteStore_SaveReportAndRecentRuns(t *testing.T) {
	store := newTestStore(t)
	at := time.Now().Add(-time.Hour)
	r := testReport(450000, at)

	if err := store.SaveReport(context.Background(), r); err != nil {
		t.Fatalf("save report: %v", err)
	}

	runs, err := store.GetRecentRuns(10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.ID != r.RunID || run.Status != models.RunStatusCompleted || run.Verdict != models.VerdictNeedsReview {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.SubjectURL != r.Subject.SourceURL || run.CandidatesFound != 1 || run.Comparables != 1 {
		t.Fatalf("unexpected run summary %+v", run)
	}
	if run.FinishedAt == nil {
		t.Fatalf("expected finished_at")
	}

	stats, err := store.GetProviderStats(at.Add(-time.Minute))
	if err != nil {
		t.Fatalf("provider stats: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("expected 3 providers, got %+v", stats)
	}
	// sorted by provider name
	if stats[0].Provider != "bing" || stats[0].Total != 2 || stats[0].Outcomes[models.OutcomeOK] != 2 {
		t.Fatalf("unexpected bing stats %+v", stats[0])
	}
	if stats[2].Provider != "duckduckgo" || stats[2].Outcomes[models.OutcomeBlocked] != 1 {
		t.Fatalf("unexpected duckduckgo stats %+v", stats[2])
	}
}

func TestSQLiteStore_PriceChanges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	first := time.Now().Add(-48 * time.Hour)

	if err := store.SaveReport(ctx, testReport(450000, first)); err != nil {
		t.Fatalf("save first: %v", err)
	}
	changes, err := store.GetPriceChanges()
	if err != nil {
		t.Fatalf("price changes: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("a single observation has no change, got %+v", changes)
	}

	second := testReport(435000, first.Add(24*time.Hour))
	if err := store.SaveReport(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}
	changes, err = store.GetPriceChanges()
	if err != nil {
		t.Fatalf("price changes: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 price change, got %+v", changes)
	}
	if changes[0].OldPrice != 450000 || changes[0].NewPrice != 435000 {
		t.Fatalf("unexpected change %+v", changes[0])
	}

	history, err := store.GetPriceHistory(identity.Fingerprint(second.Subject))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || *history[0].Price != 435000 {
		t.Fatalf("expected newest-first history, got %+v", history)
	}
	if history[0].CapRate == nil || len(history[0].Data) == 0 {
		t.Fatalf("snapshot must keep cap rate and record data")
	}
}

func TestSQLiteStore_RunLogs(t *testing.T) {
	store := newTestStore(t)
	runID := uuid.New()

	if err := store.Log(runID, models.LogLevelInfo, "duckduckgo: blocked"); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := store.Log(runID, models.LogLevelWarn, "comparable skipped"); err != nil {
		t.Fatalf("log: %v", err)
	}
	store.Log(uuid.New(), models.LogLevelInfo, "other run")

	logs, err := store.GetRunLogs(runID)
	if err != nil {
		t.Fatalf("run logs: %v", err)
	}
	if len(logs) != 2 || logs[0].Message != "duckduckgo: blocked" || logs[1].Level != models.LogLevelWarn {
		t.Fatalf("unexpected logs %+v", logs)
	}
}
