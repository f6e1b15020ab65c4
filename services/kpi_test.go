package services

import (
	"math"
	"testing"

	"estate_intel/models"
)

func approx(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: expected %v, got nil", name, want)
	}
	if math.Abs(*got-want) > 1e-6 {
		t.Fatalf("%s: expected %v, got %v", name, want, *got)
	}
}

func TestComputeMetrics_Full(t *testing.T) {
	rec := &models.PropertyRecord{Price: models.FloatPtr(450000), LivingArea: models.FloatPtr(1800)}
	m := ComputeMetrics(rec, DefaultAssumptions)

	approx(t, "monthly rent", m.MonthlyRent, 2700)
	approx(t, "annual rent", m.AnnualRent, 32400)
	approx(t, "egi", m.EffectiveGrossIncome, 30456)
	approx(t, "noi", m.NOI, 19796.4)
	approx(t, "cap rate", m.CapRate, 19796.4/450000)
	approx(t, "price per sqft", m.PricePerSqft, 250)
	approx(t, "grm", m.GrossRentMultiplier, 450000.0/32400)
	approx(t, "cashflow", m.AnnualCashflowProxy, 19796.4-6750)
}

func TestComputeMetrics_NullSafe(t *testing.T) {
	tests := []struct {
		name string
		rec  *models.PropertyRecord
	}{
		{"nil record", nil},
		{"empty record", &models.PropertyRecord{}},
		{"zero price", &models.PropertyRecord{Price: models.FloatPtr(0), LivingArea: models.FloatPtr(1000)}},
		{"area only", &models.PropertyRecord{LivingArea: models.FloatPtr(1000)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComputeMetrics(tt.rec, DefaultAssumptions)
			if m == nil {
				t.Fatalf("metrics must never be nil")
			}
			if m.CapRate != nil || m.GrossRentMultiplier != nil || m.PricePerSqft != nil {
				t.Fatalf("expected absent ratios, got cap=%v grm=%v ppsf=%v", m.CapRate, m.GrossRentMultiplier, m.PricePerSqft)
			}
		})
	}
}

func TestComputeMetrics_PriceWithoutArea(t *testing.T) {
	m := ComputeMetrics(&models.PropertyRecord{Price: models.FloatPtr(300000)}, DefaultAssumptions)
	if m.PricePerSqft != nil {
		t.Fatalf("expected no price per sqft without area, got %v", *m.PricePerSqft)
	}
	if m.CapRate == nil || m.GrossRentMultiplier == nil {
		t.Fatalf("expected cap rate and grm from price alone")
	}
}

func TestComputeMetrics_ZeroArea(t *testing.T) {
	m := ComputeMetrics(&models.PropertyRecord{Price: models.FloatPtr(300000), LivingArea: models.FloatPtr(0)}, DefaultAssumptions)
	if m.PricePerSqft != nil {
		t.Fatalf("expected no price per sqft for zero area")
	}
}
