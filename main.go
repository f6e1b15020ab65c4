package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"estate_intel/config"
	"estate_intel/export"
	"estate_intel/httputil"
	"estate_intel/logging"
	"estate_intel/models"
	"estate_intel/scheduler"
	"estate_intel/scraper"
	"estate_intel/services"
	"estate_intel/storage"
	"estate_intel/workers"
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

var (
	listingURL   = flag.String("url", "", "Listing URL to analyze")
	identifier   = flag.String("id", "", "MLS number or listing identifier to search for")
	region       = flag.String("region", "", "State or region hint for the identifier search")
	htmlPath     = flag.String("html", "", "Analyze a saved HTML file instead of fetching")
	maxComps     = flag.Int("comps", 0, "Maximum related comparables to fetch, 0 uses config, negative disables")
	outPath      = flag.String("out", "estate_report.xlsx", "Workbook output path")
	templatePath = flag.String("template", "", "Fill this .xlsx template instead of building a workbook")
	printJSON    = flag.Bool("json", false, "Print the report as JSON")
	watch        = flag.Bool("watch", false, "Run the watchlist on the configured schedule")
	history      = flag.Int("history", 0, "Show the N most recent runs and exit")
	comparables  stringList
)

func main() {
	flag.Var(&comparables, "comp", "Comparable listing URL (repeatable)")
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.SetLevel(cfg.LogLevel)

	logFile, err := logging.Setup(cfg.LogFile)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sqliteStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer sqliteStore.Close()
	logging.Debugf("SQLite database: %s", cfg.DBPath)

	if *history > 0 {
		if err := showHistory(sqliteStore, *history); err != nil {
			log.Fatalf("History failed: %v", err)
		}
		return
	}

	var sinks []storage.ReportSink
	if cfg.DatabaseURL != "" {
		pgStore, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: Postgres mirror disabled: %v", err)
		} else {
			defer pgStore.Close()
			log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.DatabaseURL))
			sinks = append(sinks, pgStore)
		}
	}

	var archive *storage.S3Archive
	if cfg.S3.Enabled() {
		archive, err = storage.NewS3Archive(ctx, cfg.S3)
		if err != nil {
			log.Printf("Warning: S3 archive disabled: %v", err)
		} else {
			sinks = append(sinks, archive)
		}
	}

	search, newPages, closeFetchers := buildFetchers(cfg)
	defer closeFetchers()

	orchestrator := scraper.NewOrchestrator(search, newPages, scraper.Options{
		Discovery: scraper.DiscoveryOptions{
			Scorer:           scraper.NewScorer(cfg.Discovery.AllowDomains, cfg.Discovery.NoiseDomains),
			MaxQueries:       cfg.Discovery.MaxQueries,
			MaxCandidates:    cfg.Discovery.MaxCandidates,
			SiteRestrictions: cfg.Discovery.SiteRestrictions,
		},
		Workers:        cfg.Comparables.Workers,
		MaxComparables: cfg.Comparables.Max,
	})

	if *watch {
		log.Printf("Loaded %d watchlist entries", len(cfg.Watchlist))
		sched := scheduler.New(cfg.Scheduler, cfg.Watchlist, orchestrator, sqliteStore, sinks...)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		log.Println("Watching. Press Ctrl+C to stop.")
		<-ctx.Done()
		log.Println("Shutting down...")
		sched.Stop()
		return
	}

	req := scraper.Request{
		URL:            *listingURL,
		Identifier:     *identifier,
		Region:         *region,
		ComparableURLs: comparables,
		MaxComparables: *maxComps,
		Progress:       func(line string) { log.Println(line) },
	}
	if *htmlPath != "" {
		data, err := os.ReadFile(*htmlPath)
		if err != nil {
			log.Fatalf("Failed to read HTML: %v", err)
		}
		req.HTML = string(data)
	}

	report, err := orchestrator.Analyze(ctx, req)
	if report == nil {
		flag.Usage()
		log.Fatalf("Analysis failed: %v", err)
	}
	if err != nil {
		log.Printf("Warning: analysis interrupted: %v", err)
	}

	// Persist even an interrupted run; the caller's context may already be done.
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer saveCancel()
	if err := storage.SaveAll(saveCtx, report, append([]storage.ReportSink{sqliteStore}, sinks...)...); err != nil {
		log.Printf("Warning: report not fully persisted: %v", err)
	}

	if !report.Found() {
		log.Printf("No listing found: %s", report.Diagnosis())
	}

	data, err := writeOutput(report)
	if err != nil {
		log.Fatalf("Failed to write workbook: %v", err)
	}
	log.Printf("Workbook written to %s", *outPath)
	if archive != nil {
		if url, err := archive.UploadWorkbook(saveCtx, report, data); err != nil {
			log.Printf("Warning: workbook upload failed: %v", err)
		} else {
			log.Printf("Workbook archived at %s", url)
		}
		if report.Found() && report.Subject.PhotoURL != "" {
			photos := workers.NewPhotoArchiver(httputil.NewClients(&cfg.HTTP).Page, archive, cfg.HTTP.UserAgent)
			if res, err := photos.Archive(saveCtx, report.Subject.PhotoURL); err != nil {
				log.Printf("Warning: photo archive failed: %v", err)
			} else {
				log.Printf("Photo archived at %s (%d bytes)", archive.PublicURL(res.Key), res.Size)
			}
		}
	}

	if *printJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Printf("Warning: failed to print report: %v", err)
		}
	}
}

// buildFetchers wires the search fetcher and the per-worker page fetcher
// factory for the configured fetch mode. Browser modes share one browser
// context; BrowserFetcher serializes access to it. Search always goes over
// plain HTTP so a blocked engine is reported to the discovery session and
// skipped for the rest of the run instead of being retried in the browser.
func buildFetchers(cfg *config.Config) (scraper.Fetcher, scraper.FetcherFactory, func()) {
	clients := httputil.NewClients(&cfg.HTTP)
	search := scraper.Fetcher(httputil.NewHTTPFetcher(clients.Search, cfg.HTTP.UserAgent, cfg.HTTP.RequestRate))
	newHTTP := func() scraper.Fetcher {
		return httputil.NewHTTPFetcher(httputil.NewClients(&cfg.HTTP).Page, cfg.HTTP.UserAgent, cfg.HTTP.RequestRate)
	}

	switch cfg.HTTP.FetchMode {
	case config.FetchModeBrowser:
		browser := scraper.NewBrowserFetcher(cfg.HTTP.UserAgent, cfg.HTTP.PageTimeout, true)
		log.Println("Fetch mode: browser")
		return search, func() scraper.Fetcher { return browser }, browser.Close
	case config.FetchModeAuto:
		browser := scraper.NewBrowserFetcher(cfg.HTTP.UserAgent, cfg.HTTP.PageTimeout, true)
		log.Println("Fetch mode: auto (browser on page challenge)")
		return search, func() scraper.Fetcher {
			return &scraper.FallbackFetcher{Primary: newHTTP(), Fallback: browser}
		}, browser.Close
	default:
		return search, newHTTP, func() {}
	}
}

func writeOutput(report *models.Report) ([]byte, error) {
	var data []byte
	if *templatePath != "" {
		tpl, err := os.ReadFile(*templatePath)
		if err != nil {
			return nil, err
		}
		var filled int
		data, filled, err = export.FillTemplate(tpl, models.FieldValues(report.Subject, report.Metrics, report.Decision))
		if err != nil {
			return nil, err
		}
		log.Printf("Template: filled %d cell(s)", filled)
	} else {
		var err error
		data, err = export.BuildWorkbook(report, services.DefaultAssumptions)
		if err != nil {
			return nil, err
		}
	}
	return data, os.WriteFile(*outPath, data, 0644)
}

func showHistory(store *storage.SQLiteStore, limit int) error {
	runs, err := store.GetRecentRuns(limit)
	if err != nil {
		return err
	}
	for _, run := range runs {
		target := run.TargetURL
		if target == "" {
			target = strings.TrimSpace(run.Identifier + " " + run.Region)
		}
		fmt.Printf("%s  %-9s  %-12s  %s\n", run.StartedAt.Format("2006-01-02 15:04"), run.Status, run.Verdict, target)
		if run.Status != models.RunStatusCompleted {
			fmt.Printf("    %s\n", run.Diagnosis)
		}
	}

	stats, err := store.GetProviderStats(time.Now().AddDate(0, 0, -30))
	if err != nil {
		return err
	}
	if len(stats) > 0 {
		fmt.Println("\nSearch providers, last 30 days:")
	}
	for _, st := range stats {
		fmt.Printf("  %-12s total %d, ok %d, no results %d, blocked %d, errors %d\n",
			st.Provider, st.Total,
			st.Outcomes[models.OutcomeOK], st.Outcomes[models.OutcomeNoResults], st.Outcomes[models.OutcomeBlocked],
			st.Outcomes[models.OutcomeHTTPError]+st.Outcomes[models.OutcomeNetworkError]+st.Outcomes[models.OutcomeError])
	}

	changes, err := store.GetPriceChanges()
	if err != nil {
		return err
	}
	if len(changes) > 0 {
		fmt.Println("\nPrice changes:")
	}
	for _, c := range changes {
		fmt.Printf("  %s  %.0f -> %.0f  %s\n", c.ChangedAt.Format("2006-01-02"), c.OldPrice, c.NewPrice, c.URL)
	}
	return nil
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	// Simple mask - find :// and mask until @
	start := strings.Index(connStr, "://")
	if start < 0 {
		return connStr
	}
	start += 3

	rest := connStr[start:]
	at := strings.Index(rest, "@")
	colon := strings.Index(rest, ":")
	if colon >= 0 && at > colon {
		return connStr[:start+colon+1] + "****" + connStr[start+at:]
	}
	return connStr
}
