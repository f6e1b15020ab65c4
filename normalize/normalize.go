// Package normalize turns noisy listing text into numbers. It holds every
// locale-sensitive rule so extraction code never parses digits itself.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// SqftPerSquareMeter converts metric floor area to square feet.
const SqftPerSquareMeter = 10.7639

var (
	numericRunRegex = regexp.MustCompile(`[0-9][0-9.,]*`)
	metricHintRegex = regexp.MustCompile(`(?i)(m2|m²|sqm|sq\.?\s?m\b|square met)`)
)

// ToNumber parses the first numeric run in text. Currency symbols, letters and
// whitespace around it are ignored. A single comma that follows every dot is
// the decimal separator ("1.234,56"); otherwise commas group thousands.
// Returns false when text has no digits or the value is not finite.
func ToNumber(text string) (float64, bool) {
	run := numericRunRegex.FindString(stripSpace(text))
	run = strings.TrimRight(run, ".,")
	if run == "" {
		return 0, false
	}

	commas := strings.Count(run, ",")
	dots := strings.Count(run, ".")
	switch {
	case commas == 1 && dots >= 1 && strings.LastIndex(run, ",") > strings.LastIndex(run, "."):
		run = strings.ReplaceAll(run, ".", "")
		run = strings.Replace(run, ",", ".", 1)
	default:
		run = strings.ReplaceAll(run, ",", "")
		if dots > 1 {
			// "1.234.567" only makes sense as grouped thousands
			run = strings.ReplaceAll(run, ".", "")
		}
	}

	v, err := strconv.ParseFloat(run, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// stripSpace drops every space rune, including the no-break and narrow
// no-break spaces used to group thousands ("450\u202f000 €").
func stripSpace(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\u00a0' || r == '\u202f' {
			return -1
		}
		return r
	}, text)
}

// PositiveNumber is ToNumber restricted to values greater than zero.
func PositiveNumber(text string) (float64, bool) {
	v, ok := ToNumber(text)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// IsMetricArea reports whether hint names a metric area unit.
func IsMetricArea(hint string) bool {
	return metricHintRegex.MatchString(hint)
}

// ConvertArea returns value in square feet, scaling it when hint carries a
// metric marker. Anything else is assumed to already be square feet.
func ConvertArea(value float64, hint string) float64 {
	if IsMetricArea(hint) {
		return value * SqftPerSquareMeter
	}
	return value
}

// Year parses a four digit construction year in 1800..2100.
func Year(text string) (int, bool) {
	v, ok := ToNumber(text)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	y := int(v)
	if y < 1800 || y > 2100 {
		return 0, false
	}
	return y, true
}
