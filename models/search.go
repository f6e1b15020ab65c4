package models

import "time"

// Outcome classifies a single search provider call.
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeNoResults    Outcome = "no_results"
	OutcomeBlocked      Outcome = "blocked"
	OutcomeHTTPError    Outcome = "http_error"
	OutcomeNetworkError Outcome = "network_error"
	OutcomeError        Outcome = "error"
)

// SearchAttempt records one provider/query execution. Attempts are never
// updated in place; a retry is a new attempt.
type SearchAttempt struct {
	Provider  string    `json:"provider" db:"provider"`
	Query     string    `json:"query" db:"query"`
	Status    *int      `json:"status" db:"status"`
	Outcome   Outcome   `json:"outcome" db:"outcome"`
	Hits      int       `json:"hits" db:"hits"`
	Detail    string    `json:"detail,omitempty" db:"detail"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Candidate is a scored URL proposed as the source page for an identifier.
type Candidate struct {
	URL      string `json:"url"`
	Score    int    `json:"score"`
	Provider string `json:"provider,omitempty"`
	Query    string `json:"query,omitempty"`
}

// CountOutcomes tallies attempts per outcome.
func CountOutcomes(attempts []SearchAttempt) map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, a := range attempts {
		counts[a.Outcome]++
	}
	return counts
}
