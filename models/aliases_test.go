package models

import (
	"reflect"
	"strings"
	"testing"
)

func jsonKeys(t *testing.T, v any) []string {
	t.Helper()
	var keys []string
	typ := reflect.TypeOf(v)
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("json")
		name := strings.Split(tag, ",")[0]
		if name == "" || name == "-" {
			continue
		}
		keys = append(keys, name)
	}
	return keys
}

func TestFieldAliases_CoverRecordAndMetrics(t *testing.T) {
	keys := append(jsonKeys(t, PropertyRecord{}), jsonKeys(t, ExecutiveMetrics{})...)
	for _, key := range keys {
		if key == "scraped_at" {
			continue
		}
		if len(FieldAliases[key]) == 0 {
			t.Errorf("field %q has no template aliases", key)
		}
	}
}

func TestFieldAliases_NoDuplicateLabels(t *testing.T) {
	seen := make(map[string]string)
	for field, labels := range FieldAliases {
		for _, label := range labels {
			if label != strings.ToLower(label) {
				t.Errorf("label %q for %s must be lower case", label, field)
			}
			if other, ok := seen[label]; ok && other != field {
				t.Errorf("label %q used by both %s and %s", label, other, field)
			}
			seen[label] = field
		}
	}
}

func TestFieldValues_KeysHaveAliases(t *testing.T) {
	year := 1998
	rec := &PropertyRecord{
		Identifier: "A123", Region: "TX", SourceURL: "https://example.com/a", Title: "t", SiteName: "s",
		Street: "1 Main St", City: "Austin", State: "TX", ZipCode: "78701",
		Price: FloatPtr(450000), Bedrooms: FloatPtr(3), Bathrooms: FloatPtr(2),
		LivingArea: FloatPtr(1800), LotSize: FloatPtr(5000), YearBuilt: &year,
		PropertyType: "house", BrokerName: "b", PhotoURL: "p",
	}
	m := &ExecutiveMetrics{
		MonthlyRent: FloatPtr(1), AnnualRent: FloatPtr(1), EffectiveGrossIncome: FloatPtr(1), NOI: FloatPtr(1),
		CapRate: FloatPtr(1), PricePerSqft: FloatPtr(1), GrossRentMultiplier: FloatPtr(1), AnnualCashflowProxy: FloatPtr(1),
	}
	values := FieldValues(rec, m, &Decision{Verdict: VerdictFavorable})
	for key := range values {
		if len(FieldAliases[key]) == 0 {
			t.Errorf("value key %q has no aliases", key)
		}
	}
	if len(values) != len(FieldAliases) {
		t.Fatalf("expected %d populated fields, got %d", len(FieldAliases), len(values))
	}
}

func TestFieldValues_OmitsMissing(t *testing.T) {
	values := FieldValues(&PropertyRecord{City: "Austin"}, &ExecutiveMetrics{}, nil)
	if len(values) != 1 || values[FieldCity] != "Austin" {
		t.Fatalf("expected only city, got %v", values)
	}
}
