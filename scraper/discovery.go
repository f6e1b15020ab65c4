package scraper

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"estate_intel/httputil"
	"estate_intel/models"
)

const (
	DefaultMaxQueries    = 8
	DefaultMaxCandidates = 10
)

// ProgressFunc receives human-readable progress lines. It may be nil.
type ProgressFunc func(line string)

func (p ProgressFunc) emit(format string, args ...any) {
	if p != nil {
		p(fmt.Sprintf(format, args...))
	}
}

type DiscoveryOptions struct {
	Providers        []Provider
	Scorer           *Scorer
	MaxQueries       int
	MaxCandidates    int
	SiteRestrictions []string
}

// Session runs candidate discovery for one analysis. Providers found blocked
// stay skipped for the rest of the session.
type Session struct {
	fetcher Fetcher
	opts    DiscoveryOptions
	blocked map[string]bool
}

func NewSession(fetcher Fetcher, opts DiscoveryOptions) *Session {
	if opts.Providers == nil {
		opts.Providers = DefaultProviders()
	}
	if opts.Scorer == nil {
		opts.Scorer = NewScorer(nil, nil)
	}
	if opts.MaxQueries <= 0 {
		opts.MaxQueries = DefaultMaxQueries
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultMaxCandidates
	}
	return &Session{
		fetcher: fetcher,
		opts:    opts,
		blocked: make(map[string]bool),
	}
}

// Blocked reports whether provider has been tripped in this session.
func (s *Session) Blocked(provider string) bool {
	return s.blocked[provider]
}

// BuildQueries expands identifier and region into ordered, deduplicated
// search queries, at most max of them.
func BuildQueries(identifier, region string, sites []string, max int) []string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil
	}
	templates := []string{
		fmt.Sprintf(`"%s" %s real estate listing`, identifier, region),
		fmt.Sprintf("MLS %s %s", identifier, region),
	}
	for _, site := range sites {
		if site = strings.TrimSpace(site); site != "" {
			templates = append(templates, fmt.Sprintf("%s %s site:%s", identifier, region, site))
		}
	}
	templates = append(templates, fmt.Sprintf("%s home for sale", identifier))

	var out []string
	seen := make(map[string]bool)
	for _, q := range templates {
		q = strings.Join(strings.Fields(q), " ")
		key := strings.ToLower(q)
		if q == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

// Discover queries every provider for every query and returns ranked
// candidates plus one attempt per provider call. It never fails: transport
// problems and bot walls end up as attempt outcomes.
func (s *Session) Discover(ctx context.Context, identifier, region string, progress ProgressFunc) ([]models.Candidate, []models.SearchAttempt) {
	var (
		candidates []models.Candidate
		attempts   []models.SearchAttempt
		seen       = make(map[string]bool)
	)

	queries := BuildQueries(identifier, region, s.opts.SiteRestrictions, s.opts.MaxQueries)

search:
	for _, query := range queries {
		for _, p := range s.opts.Providers {
			if ctx.Err() != nil {
				break search
			}
			if s.blocked[p.Name] {
				continue
			}

			attempt, found := s.search(ctx, p, query, identifier)
			attempts = append(attempts, attempt)
			if attempt.Outcome == models.OutcomeBlocked {
				s.blocked[p.Name] = true
			}
			progress.emit("%s: %s (%d hits) for %q", p.Name, attempt.Outcome, attempt.Hits, query)

			for _, c := range found {
				if seen[c.URL] {
					continue
				}
				seen[c.URL] = true
				candidates = append(candidates, c)
				progress.emit("candidate %d %s", c.Score, c.URL)
				if len(candidates) >= s.opts.MaxCandidates {
					break search
				}
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, attempts
}

// search runs one provider call and classifies it. Returned candidates are
// scored, filtered and stable-sorted by score.
func (s *Session) search(ctx context.Context, p Provider, query, identifier string) (models.SearchAttempt, []models.Candidate) {
	attempt := models.SearchAttempt{
		Provider:  p.Name,
		Query:     query,
		Timestamp: time.Now(),
	}

	page, err := s.fetcher.Fetch(ctx, p.searchURL(query))
	status := httputil.StatusOf(err)
	if page != nil && page.Status != 0 {
		status = page.Status
	}
	if status != 0 {
		attempt.Status = &status
	}

	if page == nil {
		attempt.Outcome = models.OutcomeNetworkError
		if status != 0 {
			attempt.Outcome = models.OutcomeHTTPError
		}
		if err != nil {
			attempt.Detail = err.Error()
		}
		return attempt, nil
	}

	if httputil.IsBlockingStatus(status) || p.isChallengeStatus(status) {
		attempt.Outcome = models.OutcomeBlocked
		attempt.Detail = fmt.Sprintf("status %d", status)
		if marker := httputil.DetectChallenge(page.Body); marker != "" {
			attempt.Detail += ": " + marker
		}
		return attempt, nil
	}
	if status < 200 || status >= 300 {
		attempt.Outcome = models.OutcomeHTTPError
		attempt.Detail = fmt.Sprintf("status %d", status)
		return attempt, nil
	}

	links, err := p.Parse(page.Body)
	if err != nil {
		attempt.Outcome = models.OutcomeError
		attempt.Detail = err.Error()
		return attempt, nil
	}

	found := s.rank(links, p, query, identifier)
	attempt.Hits = len(found)
	if len(found) == 0 {
		// a challenge page parses fine but yields nothing
		if marker := httputil.DetectChallenge(page.Body); marker != "" {
			attempt.Outcome = models.OutcomeBlocked
			attempt.Detail = marker
			return attempt, nil
		}
		attempt.Outcome = models.OutcomeNoResults
		return attempt, nil
	}
	attempt.Outcome = models.OutcomeOK
	return attempt, found
}

func (s *Session) rank(links []string, p Provider, query, identifier string) []models.Candidate {
	var out []models.Candidate
	for _, link := range links {
		score := s.opts.Scorer.Score(link, identifier)
		if score < 0 || (p.Strict && score <= 0) {
			continue
		}
		out = append(out, models.Candidate{URL: link, Score: score, Provider: p.Name, Query: query})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
