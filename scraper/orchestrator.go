package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"estate_intel/identity"
	"estate_intel/models"
	"estate_intel/services"
	"estate_intel/workers"
)

// ErrMissingTarget is returned when a request names no URL, HTML or identifier.
var ErrMissingTarget = errors.New("no listing URL, HTML or identifier given")

const (
	DefaultComparableWorkers = 6
	DefaultMaxComparables    = 5
)

type Options struct {
	Discovery      DiscoveryOptions
	Assumptions    models.Assumptions
	Workers        int
	MaxComparables int
}

// Orchestrator runs the analysis pipeline: discovery, fetch, extraction,
// verification, KPIs and comparables. It keeps no state between runs.
type Orchestrator struct {
	search   Fetcher
	newPages FetcherFactory
	opts     Options
}

// NewOrchestrator takes the fetcher used for search providers (short
// timeout) and a factory for page fetchers (long timeout).
func NewOrchestrator(search Fetcher, newPages FetcherFactory, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = DefaultComparableWorkers
	}
	if opts.MaxComparables < 0 {
		opts.MaxComparables = 0
	}
	if opts.Assumptions == (models.Assumptions{}) {
		opts.Assumptions = services.DefaultAssumptions
	}
	if opts.Discovery.Scorer == nil {
		opts.Discovery.Scorer = NewScorer(nil, nil)
	}
	return &Orchestrator{search: search, newPages: newPages, opts: opts}
}

type Request struct {
	URL        string
	HTML       string
	Identifier string
	Region     string
	// ComparableURLs overrides related-link discovery when set.
	ComparableURLs []string
	// MaxComparables caps related-link discovery; zero uses the default.
	MaxComparables int
	Progress       ProgressFunc
}

// Analyze produces a report for one listing. A missing subject is not an
// error: the report carries candidates, attempts and rejections and
// Diagnosis explains what happened. Only ErrMissingTarget and the caller's
// own cancellation are returned.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (*models.Report, error) {
	req.URL = strings.TrimSpace(req.URL)
	req.Identifier = strings.TrimSpace(req.Identifier)
	req.Region = strings.TrimSpace(req.Region)
	if req.URL == "" && strings.TrimSpace(req.HTML) == "" && req.Identifier == "" {
		return nil, ErrMissingTarget
	}

	report := &models.Report{
		RunID:       uuid.New(),
		Identifier:  req.Identifier,
		Region:      req.Region,
		TargetURL:   req.URL,
		Comparables: services.BuildComparableTable(nil, nil, o.opts.Assumptions),
		Candidates:  []models.Candidate{},
		Attempts:    []models.SearchAttempt{},
		Rejections:  []models.Rejection{},
		StartedAt:   time.Now(),
	}
	defer func() { report.FinishedAt = time.Now() }()

	pages := o.newPages()
	subject := o.findSubject(ctx, pages, req, report)
	if subject == nil {
		req.Progress.emit("no listing found: %s", report.Diagnosis())
		return report, ctx.Err()
	}

	rec := subject.Record
	report.Subject = rec
	report.Metrics = services.ComputeMetrics(rec, o.opts.Assumptions)
	req.Progress.emit("subject %s (%s)", rec.SourceURL, rec.Title)

	comps := o.comparables(ctx, req, subject, report)
	report.Comparables = services.BuildComparableTable(rec, comps, o.opts.Assumptions)
	decision := services.Decide(rec, report.Metrics, report.Comparables.AveragePricePerSqft())
	report.Decision = &decision
	req.Progress.emit("verdict: %s", decision.Summary())

	return report, ctx.Err()
}

func (o *Orchestrator) findSubject(ctx context.Context, pages Fetcher, req Request, report *models.Report) *Extraction {
	switch {
	case strings.TrimSpace(req.HTML) != "":
		ex := Extract([]byte(req.HTML), req.URL, req.Identifier, req.Region)
		return o.accept(ex, req.URL, report, req.Progress)

	case req.URL != "":
		return o.fetchCandidate(ctx, pages, req.URL, req, report)
	}

	session := NewSession(o.search, o.opts.Discovery)
	candidates, attempts := session.Discover(ctx, req.Identifier, req.Region, req.Progress)
	report.Candidates = append(report.Candidates, candidates...)
	report.Attempts = append(report.Attempts, attempts...)

	for _, c := range candidates {
		if ctx.Err() != nil {
			return nil
		}
		if ex := o.fetchCandidate(ctx, pages, c.URL, req, report); ex != nil {
			return ex
		}
	}
	return nil
}

func (o *Orchestrator) fetchCandidate(ctx context.Context, pages Fetcher, url string, req Request, report *models.Report) *Extraction {
	req.Progress.emit("fetching %s", url)
	page, err := pages.Fetch(ctx, url)
	if err != nil || page == nil {
		reason := models.FetchFailedReason
		if err != nil {
			reason = fmt.Sprintf("%s: %v", models.FetchFailedReason, err)
		}
		log.Printf("Warning: %s: %s", url, reason)
		report.Rejections = append(report.Rejections, models.Rejection{URL: url, Reason: reason})
		req.Progress.emit("rejected %s: %s", url, reason)
		return nil
	}

	pageURL := page.URL
	if pageURL == "" {
		pageURL = url
	}
	ex := Extract(page.Body, pageURL, req.Identifier, req.Region)
	return o.accept(ex, url, report, req.Progress)
}

func (o *Orchestrator) accept(ex Extraction, url string, report *models.Report, progress ProgressFunc) *Extraction {
	if ex.Rejected || ex.Record == nil {
		if url == "" {
			url = "(inline html)"
		}
		report.Rejections = append(report.Rejections, models.Rejection{URL: url, Reason: ex.Reason})
		progress.emit("rejected %s: %s", url, ex.Reason)
		return nil
	}
	return &ex
}

type comparableResult struct {
	record *models.PropertyRecord
	reason string
}

// comparables fetches explicit comparable URLs, or related links from the
// subject page, through the worker pool. Each worker owns its fetcher. Rows
// keep the input order; pages identical to the subject are skipped.
func (o *Orchestrator) comparables(ctx context.Context, req Request, subject *Extraction, report *models.Report) []*models.PropertyRecord {
	urls := req.ComparableURLs
	if len(urls) == 0 {
		max := req.MaxComparables
		if max == 0 {
			max = o.opts.MaxComparables
		}
		if max <= 0 || subject.Record.SourceURL == "" {
			return nil
		}
		urls = RelatedCandidates(subject.doc, subject.Record.SourceURL, o.opts.Discovery.Scorer, max)
		report.RelatedURLs = urls
	}

	seen := workers.NewURLSet()
	seen.Add(identity.NormalizeURL(subject.Record.SourceURL))
	var targets []string
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u != "" && seen.Add(identity.NormalizeURL(u)) {
			targets = append(targets, u)
		}
	}
	if len(targets) == 0 {
		return nil
	}
	req.Progress.emit("fetching %d comparable(s) with %d worker(s)", len(targets), min(o.opts.Workers, len(targets)))

	results := workers.Map(ctx, o.opts.Workers, targets, func() func(context.Context, string) comparableResult {
		fetcher := o.newPages()
		return func(ctx context.Context, url string) comparableResult {
			if ctx.Err() != nil {
				return comparableResult{reason: ctx.Err().Error()}
			}
			page, err := fetcher.Fetch(ctx, url)
			if err != nil || page == nil {
				return comparableResult{reason: fmt.Sprintf("%s: %v", models.FetchFailedReason, err)}
			}
			pageURL := page.URL
			if pageURL == "" {
				pageURL = url
			}
			return comparableResult{record: Extract(page.Body, pageURL, "", req.Region).Record}
		}
	})

	subjectPrint := identity.Fingerprint(subject.Record)
	var comps []*models.PropertyRecord
	for i, res := range results {
		url := targets[i]
		switch {
		case res.record == nil:
			reason := res.reason
			if reason == "" {
				reason = "not fetched"
			}
			report.Rejections = append(report.Rejections, models.Rejection{URL: url, Reason: "comparable " + reason})
			req.Progress.emit("comparable %s skipped: %s", url, reason)
		case identity.Fingerprint(res.record) == subjectPrint:
			req.Progress.emit("comparable %s is the subject listing, skipped", url)
		default:
			comps = append(comps, res.record)
			req.Progress.emit("comparable %s", url)
		}
	}
	return comps
}
