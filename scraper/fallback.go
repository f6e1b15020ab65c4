package scraper

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"estate_intel/normalize"
)

// minPlausiblePrice drops amounts that are really fees, room counts or areas.
const minPlausiblePrice = 10000

const maxRoomCount = 50

const amountPattern = `\d{1,3}(?:[ \x{00a0}\x{202f}]\d{3})+(?:[.,]\d+)?|\d[\d.,]*\d|\d`

var (
	// Symbol before the amount (US, UK, BR) or euro sign after it (EU).
	// Amounts may group thousands with spaces ("450 000 €").
	currencyRegex = regexp.MustCompile(`(?:US\$|R\$|\$|€|£)\s?(` + amountPattern + `)|(` + amountPattern + `)\s?(?:€|EUR\b)`)

	bedroomRegex = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:-\s*)?(?:bed(?:room)?s?|bds?|br|habitaci(?:o|ó)n(?:es)?|dormitorios?|rec(?:a|á)maras?|chambres?|quartos?|camere(?: da letto)?|schlafzimmer)\b`)

	bathroomRegex = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:-\s*)?(?:bath(?:room)?s?|ba|ba(?:ñ|n)os?|salles? de bains?|salles? d'eau|banheiros?|bagni|bagno|badezimmer|b(?:ä|ae)der)\b`)

	areaRegex = regexp.MustCompile(`(?i)(\d[\d.,]*)\s*(sq\.?\s?ft\.?|square\s?f(?:ee|oo)t|sqft|m2|m²|sqm|sq\.?\s?m\b|metros cuadrados|m(?:è|e)tres carr(?:é|e)s|metri quadri|metros quadrados|quadratmeter)`)

	cityStateRegex = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s[A-Z][a-z]+)*)\s*,\s*([A-Z]{2})\b`)
	zipRegex       = regexp.MustCompile(`\b[A-Z]{2}\s+(\d{5})(?:-\d{4})?\b`)

	propertyTypeKeywords = []string{"house", "apartment", "condo", "townhouse", "duplex", "villa", "land"}
	propertyTypeRegexes  = buildKeywordRegexes(propertyTypeKeywords)
)

func buildKeywordRegexes(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)\b` + w + `s?\b`)
	}
	return out
}

// visibleText returns the document text with scripts and styles removed and
// every text node separated by a space, so "<b>4</b>bed" stays readable.
func visibleText(doc *goquery.Document) string {
	root := doc.Selection.Clone()
	root.Find("script, style, noscript, template, svg").Remove()

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range root.Nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// priceCandidates gathers currency amounts from content/value attributes and
// from text. Price meta tags without a symbol count too.
func priceCandidates(doc *goquery.Document, text string) []float64 {
	var out []float64
	add := func(raw string) {
		for _, m := range currencyRegex.FindAllStringSubmatch(raw, -1) {
			amount := m[1]
			if amount == "" {
				amount = m[2]
			}
			if v, ok := normalize.PositiveNumber(amount); ok {
				out = append(out, v)
			}
		}
	}

	for _, attr := range []string{"content", "value"} {
		doc.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
			add(s.AttrOr(attr, ""))
		})
	}
	doc.Find(`meta[property="product:price:amount"], meta[property="og:price:amount"], [itemprop="price"]`).Each(func(_ int, s *goquery.Selection) {
		raw, ok := s.Attr("content")
		if !ok {
			raw = s.Text()
		}
		if v, ok := normalize.PositiveNumber(raw); ok {
			out = append(out, v)
		}
	})
	add(text)
	return out
}

// pickPrice keeps plausible amounts and returns the smallest.
func pickPrice(candidates []float64) (float64, bool) {
	var plausible []float64
	for _, c := range candidates {
		if c >= minPlausiblePrice {
			plausible = append(plausible, c)
		}
	}
	if len(plausible) == 0 {
		return 0, false
	}
	sort.Float64s(plausible)
	return plausible[0], true
}

// roomCount parses small counts where a comma is always a decimal ("2,5 baños").
func roomCount(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil || v <= 0 || v > maxRoomCount {
		return 0, false
	}
	return v, true
}

func areaFromText(text string) (float64, bool) {
	m := areaRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, ok := normalize.PositiveNumber(m[1])
	if !ok {
		return 0, false
	}
	return normalize.ConvertArea(v, m[2]), true
}

func cityStateFromText(text string) (string, string) {
	m := cityStateRegex.FindStringSubmatch(text)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

func zipFromText(text string) string {
	if m := zipRegex.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// propertyTypeFromText returns the first keyword present, checked in list
// order, capitalized.
func propertyTypeFromText(text string) string {
	for i, re := range propertyTypeRegexes {
		if re.MatchString(text) {
			w := propertyTypeKeywords[i]
			return strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return ""
}
