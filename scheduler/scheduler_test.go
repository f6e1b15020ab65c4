package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"estate_intel/config"
	"estate_intel/models"
	"estate_intel/scraper"
)

type fakeAnalyzer struct {
	mu       sync.Mutex
	requests []scraper.Request
	cancel   context.CancelFunc
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, req scraper.Request) (*models.Report, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()

	if req.Progress != nil {
		req.Progress("bing: ok (1 hits) for \"A1\"")
	}
	report := &models.Report{
		RunID:       uuid.New(),
		Identifier:  req.Identifier,
		Comparables: models.ComparableTable{Columns: models.ComparableColumns},
		StartedAt:   time.Now(),
		FinishedAt:  time.Now(),
	}
	if req.URL != "" {
		report.Subject = &models.PropertyRecord{SourceURL: req.URL, Price: models.FloatPtr(300000)}
		report.Decision = &models.Decision{Verdict: models.VerdictNeedsReview, Notes: []string{"Cap rate is below 5% threshold."}}
	}
	if a.cancel != nil {
		a.cancel()
		return report, ctx.Err()
	}
	return report, nil
}

type logLine struct {
	runID   uuid.UUID
	level   models.LogLevel
	message string
}

type fakeHistory struct {
	saved   []*models.Report
	logs    []logLine
	changes []models.PriceChange
}

func (h *fakeHistory) SaveReport(ctx context.Context, r *models.Report) error {
	h.saved = append(h.saved, r)
	return nil
}

func (h *fakeHistory) Log(runID uuid.UUID, level models.LogLevel, message string) error {
	h.logs = append(h.logs, logLine{runID, level, message})
	return nil
}

func (h *fakeHistory) GetPriceChanges() ([]models.PriceChange, error) {
	return h.changes, nil
}

type failingSink struct{ calls int }

func (f *failingSink) SaveReport(ctx context.Context, r *models.Report) error {
	f.calls++
	return errors.New("bucket unavailable")
}

func TestRunAll_PersistsEveryEntry(t *testing.T) {
	out := filepath.Join(t.TempDir(), "main-st.xlsx")
	entries := []config.WatchEntry{
		{ID: "main-st", URL: "https://www.example-realty.com/listing/123", Comparables: 3, Output: out},
		{ID: "mls", Identifier: "A1", Region: "TX"},
	}
	analyzer := &fakeAnalyzer{}
	history := &fakeHistory{}
	extra := &failingSink{}
	s := New(config.SchedulerConfig{}, entries, analyzer, history, extra)

	if err := s.RunAll(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(analyzer.requests) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(analyzer.requests))
	}
	if analyzer.requests[0].MaxComparables != 3 || analyzer.requests[1].Region != "TX" {
		t.Fatalf("entry fields not forwarded: %+v", analyzer.requests)
	}
	if len(history.saved) != 2 || extra.calls != 2 {
		t.Fatalf("every report must reach every sink: %d %d", len(history.saved), extra.calls)
	}

	var warnings int
	for _, l := range history.logs {
		if l.runID == uuid.Nil {
			t.Fatalf("run log without run id: %+v", l)
		}
		if l.level == models.LogLevelWarn {
			warnings++
		}
	}
	if warnings != 1 {
		t.Fatalf("expected one not-found warning, got %d", warnings)
	}
	if !strings.HasPrefix(history.logs[0].message, "[main-st] bing: ok") {
		t.Fatalf("progress lines must be logged first, got %q", history.logs[0].message)
	}

	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Fatalf("expected a workbook at %s: %v", out, err)
	}
}

func TestRunAll_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	entries := []config.WatchEntry{
		{ID: "one", Identifier: "A1"},
		{ID: "two", Identifier: "A2"},
	}
	analyzer := &fakeAnalyzer{cancel: cancel}
	history := &fakeHistory{}
	s := New(config.SchedulerConfig{}, entries, analyzer, history)

	err := s.RunAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(analyzer.requests) != 1 {
		t.Fatalf("expected the run to stop after the first entry, got %d", len(analyzer.requests))
	}
	if len(history.saved) != 1 {
		t.Fatalf("the partial report must still be saved")
	}
}

func TestStart_RequiresSchedule(t *testing.T) {
	s := New(config.SchedulerConfig{}, nil, &fakeAnalyzer{}, &fakeHistory{})
	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected an error without cron or interval")
	}

	bad := New(config.SchedulerConfig{Cron: "every tuesday"}, nil, &fakeAnalyzer{}, &fakeHistory{})
	if err := bad.Start(context.Background()); err == nil {
		t.Fatalf("expected an invalid cron error")
	}
}

func TestStart_IntervalRuns(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	s := New(config.SchedulerConfig{Interval: 10 * time.Millisecond},
		[]config.WatchEntry{{ID: "one", Identifier: "A1"}}, analyzer, &fakeHistory{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		analyzer.mu.Lock()
		n := len(analyzer.requests)
		analyzer.mu.Unlock()
		if n > 0 {
			s.Stop()
			s.Stop()
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	t.Fatalf("interval never fired")
}
