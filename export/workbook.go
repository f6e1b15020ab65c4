package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"estate_intel/models"
)

const (
	SheetSummary     = "Executive Summary"
	SheetComparables = "Comparables"
	SheetAssumptions = "Economic Assumptions"
)

var summaryColumns = []string{
	"Generated At",
	"URL",
	"Title",
	"City",
	"Property Type",
	"Price",
	"Bedrooms",
	"Bathrooms",
	"Area sqft",
	"Price/sqft",
	"Estimated NOI",
	"Estimated Cap Rate",
	"Gross Rent Multiplier",
	"Annual Cashflow Proxy",
	"Executive Decision",
}

var assumptionColumns = []string{
	"monthly_rent_proxy",
	"annual_rent_proxy",
	"vacancy_rate",
	"expense_ratio",
	"effective_gross_income",
	"noi",
}

// BuildWorkbook renders a finished report as an .xlsx file with the executive
// summary, the comparable table and the economic assumptions behind the KPIs.
func BuildWorkbook(r *models.Report, a models.Assumptions) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetComparables, SheetAssumptions} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	generated := r.FinishedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	if err := writeTable(f, SheetSummary, summaryColumns, [][]any{summaryRow(r, generated)}); err != nil {
		return nil, err
	}

	comps := r.Comparables
	columns := comps.Columns
	if len(columns) == 0 {
		columns = models.ComparableColumns
	}
	rows := make([][]any, 0, len(comps.Rows))
	for _, row := range comps.Rows {
		rows = append(rows, row.Values())
	}
	if err := writeTable(f, SheetComparables, columns, rows); err != nil {
		return nil, err
	}

	if err := writeTable(f, SheetAssumptions, assumptionColumns, [][]any{assumptionRow(r.Subject, a)}); err != nil {
		return nil, err
	}

	if err := formatSummary(f); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SheetComparables, "A", "I", 22); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, sheet string, header []string, rows [][]any) error {
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func summaryRow(r *models.Report, generated time.Time) []any {
	row := make([]any, len(summaryColumns))
	row[0] = generated.UTC().Format(time.RFC3339)
	if s := r.Subject; s != nil {
		row[1] = s.SourceURL
		row[2] = s.Title
		row[3] = s.City
		row[4] = s.PropertyType
		row[5] = value(s.Price)
		row[6] = value(s.Bedrooms)
		row[7] = value(s.Bathrooms)
		row[8] = value(s.LivingArea)
	}
	if m := r.Metrics; m != nil {
		row[9] = value(m.PricePerSqft)
		row[10] = value(m.NOI)
		row[11] = value(m.CapRate)
		row[12] = value(m.GrossRentMultiplier)
		row[13] = value(m.AnnualCashflowProxy)
	}
	if r.Decision != nil {
		row[14] = r.Decision.Summary()
	} else {
		row[14] = r.Diagnosis()
	}
	return row
}

// assumptionRow mirrors the rent proxy chain; a missing price yields zeros.
func assumptionRow(rec *models.PropertyRecord, a models.Assumptions) []any {
	var price float64
	if rec != nil && rec.Price != nil && *rec.Price > 0 {
		price = *rec.Price
	}
	monthly := price * a.MonthlyRentRate
	annual := monthly * 12
	egi := annual * (1 - a.VacancyRate)
	noi := egi * (1 - a.ExpenseRatio)
	return []any{monthly, annual, a.VacancyRate, a.ExpenseRatio, egi, noi}
}

func formatSummary(f *excelize.File) error {
	money := "$#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &money})
	if err != nil {
		return err
	}
	// built-in 10 is 0.00%
	pctStyle, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return err
	}

	if err := f.SetColWidth(SheetSummary, "A", "O", 24); err != nil {
		return err
	}
	for _, col := range []string{"F", "J", "K"} {
		if err := f.SetColStyle(SheetSummary, col, moneyStyle); err != nil {
			return err
		}
	}
	return f.SetColStyle(SheetSummary, "L", pctStyle)
}

func value(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
