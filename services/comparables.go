package services

import (
	"estate_intel/models"
)

// BuildComparableTable benchmarks each comparable against the subject. A
// subject without a price counts as zero; a comparable without a price has no
// delta. The result always carries the full column set.
func BuildComparableTable(base *models.PropertyRecord, comps []*models.PropertyRecord, a models.Assumptions) models.ComparableTable {
	table := models.ComparableTable{
		Columns: append([]string(nil), models.ComparableColumns...),
		Rows:    []models.ComparableRow{},
	}

	basePrice := 0.0
	if base != nil && base.Price != nil {
		basePrice = *base.Price
	}

	for _, comp := range comps {
		if comp == nil {
			continue
		}
		m := ComputeMetrics(comp, a)
		row := models.ComparableRow{
			URL:          comp.SourceURL,
			Title:        comp.Title,
			Price:        comp.Price,
			Bedrooms:     comp.Bedrooms,
			Bathrooms:    comp.Bathrooms,
			AreaSqft:     comp.LivingArea,
			PricePerSqft: m.PricePerSqft,
			CapRate:      m.CapRate,
		}
		if comp.Price != nil {
			row.PriceDelta = models.FloatPtr(*comp.Price - basePrice)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
