package services

import (
	"reflect"
	"testing"

	"estate_intel/models"
)

func TestBuildComparableTable_Empty(t *testing.T) {
	table := BuildComparableTable(&models.PropertyRecord{Price: models.FloatPtr(1)}, nil, DefaultAssumptions)
	if table.Rows == nil {
		t.Fatalf("rows must be an empty slice, not nil")
	}
	if len(table.Rows) != 0 {
		t.Fatalf("expected 0 rows, got %d", len(table.Rows))
	}
	if !reflect.DeepEqual(table.Columns, models.ComparableColumns) {
		t.Fatalf("unexpected columns %v", table.Columns)
	}
}

func TestBuildComparableTable_Delta(t *testing.T) {
	base := &models.PropertyRecord{Price: models.FloatPtr(400000)}
	comps := []*models.PropertyRecord{
		{SourceURL: "https://a.example/1", Price: models.FloatPtr(450000), LivingArea: models.FloatPtr(1500)},
		{SourceURL: "https://a.example/2"},
		nil,
	}

	table := BuildComparableTable(base, comps, DefaultAssumptions)
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	first := table.Rows[0]
	if first.PriceDelta == nil || *first.PriceDelta != 50000 {
		t.Fatalf("expected delta 50000, got %v", first.PriceDelta)
	}
	if first.PricePerSqft == nil || *first.PricePerSqft != 300 {
		t.Fatalf("expected own price per sqft 300, got %v", first.PricePerSqft)
	}
	if first.CapRate == nil {
		t.Fatalf("expected own cap rate")
	}
	if table.Rows[1].PriceDelta != nil {
		t.Fatalf("comparable without price must have no delta")
	}
	if len(first.Values()) != len(table.Columns) {
		t.Fatalf("row values do not line up with columns")
	}
}

func TestBuildComparableTable_MissingBasePrice(t *testing.T) {
	comps := []*models.PropertyRecord{{Price: models.FloatPtr(300000)}}
	table := BuildComparableTable(&models.PropertyRecord{}, comps, DefaultAssumptions)
	if d := table.Rows[0].PriceDelta; d == nil || *d != 300000 {
		t.Fatalf("missing base price should count as zero, got %v", d)
	}
}
