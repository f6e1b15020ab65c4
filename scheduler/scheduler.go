package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"estate_intel/config"
	"estate_intel/export"
	"estate_intel/logging"
	"estate_intel/models"
	"estate_intel/scraper"
	"estate_intel/services"
	"estate_intel/storage"
)

// Analyzer runs one analysis. *scraper.Orchestrator satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req scraper.Request) (*models.Report, error)
}

// LogFunc records a run-scoped log line.
type LogFunc func(level models.LogLevel, source, message string)

// History is the local run store the scheduler reports into.
type History interface {
	storage.ReportSink
	Log(runID uuid.UUID, level models.LogLevel, message string) error
	GetPriceChanges() ([]models.PriceChange, error)
}

// Scheduler re-analyzes the watchlist on a cron expression or a fixed
// interval and records every run.
type Scheduler struct {
	cfg      config.SchedulerConfig
	entries  []config.WatchEntry
	analyzer Analyzer
	history  History
	sinks    []storage.ReportSink
	cron     *cron.Cron
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
	running  sync.Mutex
}

// New builds a scheduler. Extra sinks (Postgres, S3) receive every report
// after the local history.
func New(cfg config.SchedulerConfig, entries []config.WatchEntry, analyzer Analyzer, history History, sinks ...storage.ReportSink) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		entries:  entries,
		analyzer: analyzer,
		history:  history,
		sinks:    sinks,
		cron:     cron.New(),
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.entries) == 0 {
		log.Println("Watchlist is empty, nothing to schedule")
	}

	if s.cfg.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Cron)
		_, err := s.cron.AddFunc(s.cfg.Cron, func() {
			if err := s.RunAll(ctx); err != nil {
				log.Printf("Scheduled run error: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Interval)
		s.ticker = time.NewTicker(s.cfg.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					if err := s.RunAll(ctx); err != nil {
						log.Printf("Scheduled run error: %v", err)
					}
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		return fmt.Errorf("no schedule configured: set WATCH_CRON or WATCH_INTERVAL")
	}

	return nil
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.cron != nil {
			<-s.cron.Stop().Done()
		}
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
	})
}

// RunAll analyzes every watchlist entry once, in order. A run that is still
// going when the next tick fires causes that tick to be skipped.
func (s *Scheduler) RunAll(ctx context.Context) error {
	if !s.running.TryLock() {
		log.Println("Warning: previous watch run still in progress, skipping")
		return nil
	}
	defer s.running.Unlock()

	started := time.Now()
	for _, entry := range s.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.RunEntry(ctx, entry); err != nil {
			return err
		}
	}

	s.reportPriceChanges(started)
	log.Printf("Watch run finished: %d entries in %s", len(s.entries), time.Since(started).Round(time.Millisecond))
	return nil
}

// RunEntry analyzes one entry and persists the result. Only cancellation is
// returned as an error; persistence failures are logged.
func (s *Scheduler) RunEntry(ctx context.Context, entry config.WatchEntry) (*models.Report, error) {
	var progress []string
	report, err := s.analyzer.Analyze(ctx, scraper.Request{
		URL:            entry.URL,
		Identifier:     entry.Identifier,
		Region:         entry.Region,
		MaxComparables: entry.Comparables,
		Progress: func(line string) {
			logging.Debugf("%s: %s", entry.ID, line)
			progress = append(progress, line)
		},
	})
	if report == nil {
		log.Printf("Watch %s: %v", entry.ID, err)
		return nil, ctx.Err()
	}

	sinks := append([]storage.ReportSink{s.history}, s.sinks...)
	if err := storage.SaveAll(ctx, report, sinks...); err != nil {
		log.Printf("Warning: watch %s: report not fully persisted", entry.ID)
	}

	runLog := s.runLogger(report.RunID)
	for _, line := range progress {
		runLog(models.LogLevelInfo, entry.ID, line)
	}

	if report.Found() {
		runLog(models.LogLevelInfo, entry.ID, report.Decision.Summary())
		log.Printf("Watch %s: %s (%s)", entry.ID, report.Decision.Verdict, report.Subject.SourceURL)
	} else {
		runLog(models.LogLevelWarn, entry.ID, report.Diagnosis())
		log.Printf("Watch %s: not found: %s", entry.ID, report.Diagnosis())
	}

	if entry.Output != "" {
		if err := writeWorkbook(entry.Output, report); err != nil {
			runLog(models.LogLevelError, entry.ID, err.Error())
			log.Printf("Warning: watch %s: %v", entry.ID, err)
		}
	}

	return report, err
}

// runLogger writes run-scoped lines into the history store.
func (s *Scheduler) runLogger(runID uuid.UUID) LogFunc {
	return func(level models.LogLevel, source, message string) {
		if err := s.history.Log(runID, level, "["+source+"] "+message); err != nil {
			log.Printf("Warning: failed to write run log: %v", err)
		}
	}
}

func (s *Scheduler) reportPriceChanges(since time.Time) {
	changes, err := s.history.GetPriceChanges()
	if err != nil {
		log.Printf("Warning: failed to load price changes: %v", err)
		return
	}
	for _, c := range changes {
		if c.ChangedAt.Before(since) {
			continue
		}
		log.Printf("Price change: %s %.0f -> %.0f", c.URL, c.OldPrice, c.NewPrice)
	}
}

func writeWorkbook(path string, report *models.Report) error {
	data, err := export.BuildWorkbook(report, services.DefaultAssumptions)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
