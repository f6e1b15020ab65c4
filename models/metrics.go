package models

// ExecutiveMetrics are the investment KPIs derived from a single record.
// A field is nil whenever one of its inputs is missing or degenerate.
type ExecutiveMetrics struct {
	MonthlyRent          *float64 `json:"monthly_rent_proxy"`
	AnnualRent           *float64 `json:"annual_rent_proxy"`
	EffectiveGrossIncome *float64 `json:"effective_gross_income"`
	NOI                  *float64 `json:"estimated_noi"`
	CapRate              *float64 `json:"estimated_cap_rate"`
	PricePerSqft         *float64 `json:"price_per_sqft"`
	GrossRentMultiplier  *float64 `json:"gross_rent_multiplier"`
	AnnualCashflowProxy  *float64 `json:"annual_cashflow_proxy"`
}

// Assumptions are the fixed economic constants behind ExecutiveMetrics.
type Assumptions struct {
	MonthlyRentRate float64 `json:"monthly_rent_rate"`
	VacancyRate     float64 `json:"vacancy_rate"`
	ExpenseRatio    float64 `json:"expense_ratio"`
	DebtServiceRate float64 `json:"debt_service_rate"`
}

const (
	VerdictFavorable   = "favorable"
	VerdictNeedsReview = "needs review"
)

// Decision is the threshold-scored recommendation for a subject property.
type Decision struct {
	Verdict string   `json:"verdict"`
	Score   int      `json:"score"`
	Notes   []string `json:"notes"`
}

// Summary renders the decision as a single line.
func (d Decision) Summary() string {
	out := d.Verdict + ":"
	for _, n := range d.Notes {
		out += " " + n
	}
	return out
}
