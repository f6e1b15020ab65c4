package services

import (
	"fmt"

	"estate_intel/models"
)

const (
	minCapRate          = 0.05
	pricePerSqftCeiling = 300.0
	minBedrooms         = 3
	favorableScore      = 2
)

// Decide scores the subject against three thresholds, one point each: cap
// rate, price per sqft (against the comparable average when there is one,
// else a fixed ceiling) and bedroom count.
func Decide(rec *models.PropertyRecord, m *models.ExecutiveMetrics, compAvgPricePerSqft *float64) models.Decision {
	d := models.Decision{}
	if m == nil {
		m = &models.ExecutiveMetrics{}
	}

	switch {
	case m.CapRate == nil:
		d.Notes = append(d.Notes, "Cap rate unavailable.")
	case *m.CapRate >= minCapRate:
		d.Score++
		d.Notes = append(d.Notes, fmt.Sprintf("Cap rate %.2f%% meets the %.0f%% threshold.", *m.CapRate*100, minCapRate*100))
	default:
		d.Notes = append(d.Notes, fmt.Sprintf("Cap rate %.2f%% is below the %.0f%% threshold.", *m.CapRate*100, minCapRate*100))
	}

	benchmark, label := pricePerSqftCeiling, "ceiling"
	if compAvgPricePerSqft != nil {
		benchmark, label = *compAvgPricePerSqft, "comparable average"
	}
	switch {
	case m.PricePerSqft == nil:
		d.Notes = append(d.Notes, "Price per sqft unavailable.")
	case *m.PricePerSqft <= benchmark:
		d.Score++
		d.Notes = append(d.Notes, fmt.Sprintf("Price per sqft $%.2f is at or below the %s of $%.2f.", *m.PricePerSqft, label, benchmark))
	default:
		d.Notes = append(d.Notes, fmt.Sprintf("Price per sqft $%.2f is above the %s of $%.2f.", *m.PricePerSqft, label, benchmark))
	}

	switch {
	case rec == nil || rec.Bedrooms == nil:
		d.Notes = append(d.Notes, "Bedroom count unavailable.")
	case *rec.Bedrooms >= minBedrooms:
		d.Score++
		d.Notes = append(d.Notes, fmt.Sprintf("%.0f bedrooms supports rental demand.", *rec.Bedrooms))
	default:
		d.Notes = append(d.Notes, fmt.Sprintf("%.0f bedrooms is below the %d bedroom target.", *rec.Bedrooms, minBedrooms))
	}

	d.Verdict = models.VerdictNeedsReview
	if d.Score >= favorableScore {
		d.Verdict = models.VerdictFavorable
	}
	return d
}
