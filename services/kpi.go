package services

import (
	"math"

	"estate_intel/models"
)

// DefaultAssumptions are the fixed economic constants behind every KPI.
var DefaultAssumptions = models.Assumptions{
	MonthlyRentRate: 0.006,
	VacancyRate:     0.06,
	ExpenseRatio:    0.35,
	DebtServiceRate: 0.015,
}

// ComputeMetrics derives investment KPIs from a record. It never fails: any
// ratio whose numerator is missing or whose denominator is missing or zero is
// left nil.
func ComputeMetrics(rec *models.PropertyRecord, a models.Assumptions) *models.ExecutiveMetrics {
	m := &models.ExecutiveMetrics{}
	if rec == nil {
		return m
	}

	price := positive(rec.Price)
	area := positive(rec.LivingArea)

	if price != nil {
		m.MonthlyRent = finite(*price * a.MonthlyRentRate)
	}
	if m.MonthlyRent != nil {
		m.AnnualRent = finite(*m.MonthlyRent * 12)
	}
	if m.AnnualRent != nil {
		m.EffectiveGrossIncome = finite(*m.AnnualRent * (1 - a.VacancyRate))
	}
	if m.EffectiveGrossIncome != nil {
		m.NOI = finite(*m.EffectiveGrossIncome * (1 - a.ExpenseRatio))
	}

	m.CapRate = ratio(m.NOI, price)
	m.PricePerSqft = ratio(price, area)
	m.GrossRentMultiplier = ratio(price, m.AnnualRent)

	if m.NOI != nil && price != nil {
		m.AnnualCashflowProxy = finite(*m.NOI - *price*a.DebtServiceRate)
	}
	return m
}

func ratio(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	return finite(*num / *den)
}

func positive(p *float64) *float64 {
	if p == nil || *p <= 0 {
		return nil
	}
	return finite(*p)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
