package storage

import (
	"context"
	"encoding/json"
	"log"

	"estate_intel/identity"
	"estate_intel/models"
)

// ReportSink persists a finished analysis report.
type ReportSink interface {
	SaveReport(ctx context.Context, r *models.Report) error
}

// SaveAll hands the report to every sink. A failing sink is logged and does
// not stop the others; the first error is returned.
func SaveAll(ctx context.Context, r *models.Report, sinks ...ReportSink) error {
	var first error
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		if err := sink.SaveReport(ctx, r); err != nil {
			log.Printf("Warning: failed to save report %s: %v", r.RunID, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// snapshotsFromReport turns the subject and every comparable row into
// snapshots. Comparables are keyed by URL since only their table row is kept.
func snapshotsFromReport(r *models.Report) []models.PropertySnapshot {
	var snaps []models.PropertySnapshot
	if r.Subject != nil {
		data, _ := json.Marshal(r.Subject)
		snap := models.PropertySnapshot{
			Fingerprint: identity.Fingerprint(r.Subject),
			RunID:       r.RunID,
			Role:        models.SnapshotRoleSubject,
			URL:         r.Subject.SourceURL,
			Price:       r.Subject.Price,
			Data:        data,
			ScrapedAt:   r.Subject.ScrapedAt,
		}
		if r.Metrics != nil {
			snap.CapRate = r.Metrics.CapRate
		}
		snaps = append(snaps, snap)
	}
	for _, row := range r.Comparables.Rows {
		data, _ := json.Marshal(row)
		snaps = append(snaps, models.PropertySnapshot{
			Fingerprint: identity.Fingerprint(&models.PropertyRecord{SourceURL: row.URL}),
			RunID:       r.RunID,
			Role:        models.SnapshotRoleComparable,
			URL:         row.URL,
			Price:       row.Price,
			CapRate:     row.CapRate,
			Data:        data,
			ScrapedAt:   r.FinishedAt,
		})
	}
	return snaps
}
