package models

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusNotFound  RunStatus = "not_found"
	RunStatusFailed    RunStatus = "failed"
)

// AnalysisRun is the persisted summary of one Analyze call.
type AnalysisRun struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Identifier      string     `json:"identifier" db:"identifier"`
	Region          string     `json:"region" db:"region"`
	TargetURL       string     `json:"target_url" db:"target_url"`
	SubjectURL      string     `json:"subject_url" db:"subject_url"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	FinishedAt      *time.Time `json:"finished_at" db:"finished_at"`
	Status          RunStatus  `json:"status" db:"status"`
	CandidatesFound int        `json:"candidates_found" db:"candidates_found"`
	Comparables     int        `json:"comparables" db:"comparables"`
	Verdict         string     `json:"verdict" db:"verdict"`
	Diagnosis       string     `json:"diagnosis" db:"diagnosis"`
}

// RunFromReport summarizes a finished report.
func RunFromReport(r *Report) *AnalysisRun {
	finished := r.FinishedAt
	run := &AnalysisRun{
		ID:              r.RunID,
		Identifier:      r.Identifier,
		Region:          r.Region,
		TargetURL:       r.TargetURL,
		StartedAt:       r.StartedAt,
		FinishedAt:      &finished,
		Status:          RunStatusNotFound,
		CandidatesFound: len(r.Candidates),
		Comparables:     len(r.Comparables.Rows),
		Diagnosis:       r.Diagnosis(),
	}
	if r.Subject != nil {
		run.Status = RunStatusCompleted
		run.SubjectURL = r.Subject.SourceURL
	}
	if r.Decision != nil {
		run.Verdict = r.Decision.Verdict
	}
	return run
}

// ProviderStats aggregates search outcomes for one provider across runs.
type ProviderStats struct {
	Provider string          `json:"provider" db:"provider"`
	Outcomes map[Outcome]int `json:"outcomes"`
	Total    int             `json:"total"`
}
