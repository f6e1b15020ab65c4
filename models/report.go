package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ComparableColumns is the fixed header of every comparable table.
var ComparableColumns = []string{
	"URL",
	"Title",
	"Price",
	"Bedrooms",
	"Bathrooms",
	"Area sqft",
	"Price/sqft",
	"Cap Rate",
	"Benchmark vs Subject Price",
}

// ComparableRow is one benchmarked comparable listing.
type ComparableRow struct {
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Price        *float64 `json:"price"`
	Bedrooms     *float64 `json:"bedrooms"`
	Bathrooms    *float64 `json:"bathrooms"`
	AreaSqft     *float64 `json:"area_sqft"`
	PricePerSqft *float64 `json:"price_per_sqft"`
	CapRate      *float64 `json:"cap_rate"`
	PriceDelta   *float64 `json:"price_delta"`
}

// Values returns the row in ComparableColumns order; nil facts stay nil.
func (r ComparableRow) Values() []any {
	return []any{
		r.URL, r.Title,
		floatOrNil(r.Price), floatOrNil(r.Bedrooms), floatOrNil(r.Bathrooms),
		floatOrNil(r.AreaSqft), floatOrNil(r.PricePerSqft), floatOrNil(r.CapRate),
		floatOrNil(r.PriceDelta),
	}
}

func floatOrNil(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// ComparableTable is never nil-valued: an empty table still carries Columns.
type ComparableTable struct {
	Columns []string        `json:"columns"`
	Rows    []ComparableRow `json:"rows"`
}

// AveragePricePerSqft averages the rows that have a price per sqft.
func (t ComparableTable) AveragePricePerSqft() *float64 {
	var sum float64
	var n int
	for _, r := range t.Rows {
		if r.PricePerSqft != nil {
			sum += *r.PricePerSqft
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// Rejection explains why a candidate did not become the subject. Reasons for
// pages that never arrived start with FetchFailedReason.
type Rejection struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

const FetchFailedReason = "fetch failed"

func (r Rejection) FetchFailed() bool {
	return strings.HasPrefix(r.Reason, FetchFailedReason)
}

// Report is everything one analysis run produced.
type Report struct {
	RunID       uuid.UUID         `json:"run_id"`
	Identifier  string            `json:"identifier,omitempty"`
	Region      string            `json:"region,omitempty"`
	TargetURL   string            `json:"target_url,omitempty"`
	Subject     *PropertyRecord   `json:"subject"`
	Metrics     *ExecutiveMetrics `json:"metrics"`
	Decision    *Decision         `json:"decision"`
	Comparables ComparableTable   `json:"comparables"`
	Candidates  []Candidate       `json:"candidates"`
	Attempts    []SearchAttempt   `json:"attempts"`
	Rejections  []Rejection       `json:"rejections"`
	RelatedURLs []string          `json:"related_urls,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
}

// Found reports whether a subject record was accepted.
func (r *Report) Found() bool {
	return r.Subject != nil
}

// Diagnosis explains the outcome in one line, distinguishing why nothing was
// found: every provider blocked, searches with no matches, candidates that were
// all rejected, or candidates that could not be fetched.
func (r *Report) Diagnosis() string {
	if r.Found() {
		return fmt.Sprintf("matched %s", r.Subject.SourceURL)
	}

	counts := CountOutcomes(r.Attempts)
	failed := 0
	for _, rej := range r.Rejections {
		if rej.FetchFailed() {
			failed++
		}
	}
	switch {
	case len(r.Rejections) > failed:
		return fmt.Sprintf("%d candidate page(s) fetched but rejected (identifier not verified and no listing facts), %d could not be fetched",
			len(r.Rejections)-failed, failed)
	case failed > 0:
		return fmt.Sprintf("%d page(s) could not be fetched", failed)
	case len(r.Candidates) > 0:
		return fmt.Sprintf("%d candidate(s) found but none could be fetched", len(r.Candidates))
	case len(r.Attempts) == 0:
		return "no search was performed"
	case counts[OutcomeBlocked] > 0 && counts[OutcomeOK]+counts[OutcomeNoResults] == 0:
		return fmt.Sprintf("all search providers blocked the request (%d blocked attempt(s))", counts[OutcomeBlocked])
	case counts[OutcomeNoResults] > 0 || counts[OutcomeOK] > 0:
		return fmt.Sprintf("searches returned no usable listing links (%d no_results, %d blocked, %d failed)",
			counts[OutcomeNoResults], counts[OutcomeBlocked],
			counts[OutcomeHTTPError]+counts[OutcomeNetworkError]+counts[OutcomeError])
	default:
		return fmt.Sprintf("all %d search attempt(s) failed (%d blocked)", len(r.Attempts), counts[OutcomeBlocked])
	}
}
