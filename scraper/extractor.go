package scraper

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"estate_intel/models"
	"estate_intel/normalize"
	"estate_intel/services"
)

const (
	maxTitleRunes = 120
	unknownTitle  = "Unknown Listing"
)

// Extraction is the outcome of parsing one page. Record is set even when
// Rejected so callers can log what was seen.
type Extraction struct {
	Record   *models.PropertyRecord
	Rejected bool
	Reason   string
	Verified bool
	Text     string // visible page text
	doc      *goquery.Document
}

// Extract builds a PropertyRecord from a listing page. Structured data wins
// over meta tags, which win over free text; each step only fills fields still
// empty. With an identifier the page is rejected unless the identifier is
// found on it or the page produced an address, price or room count.
func Extract(body []byte, pageURL, identifier, region string) Extraction {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Extraction{Rejected: true, Reason: fmt.Sprintf("unparseable document: %v", err)}
	}

	rec := &models.PropertyRecord{
		Identifier: identifier,
		Region:     region,
		SourceURL:  pageURL,
		ScrapedAt:  time.Now(),
	}

	nodes := parseJSONLD(doc)
	applyStructuredData(rec, nodes)

	if rec.PhotoURL == "" {
		rec.PhotoURL = metaContent(doc, "og:image")
	}
	rec.PhotoURL = resolveURL(pageURL, rec.PhotoURL)

	text := visibleText(doc)
	looseCity := applyTextFallback(rec, doc, text)

	rec.Title = pageTitle(doc)
	rec.SiteName = siteName(doc, pageURL)

	ex := Extraction{Record: rec, Text: text, doc: doc}
	if identifier == "" {
		return ex
	}

	ex.Verified = services.Matches(identifier, string(body), text, pageURL)
	if !ex.Verified && !hasListingFacts(rec, looseCity) {
		ex.Rejected = true
		ex.Reason = fmt.Sprintf("identifier %s not found and no listing facts on page", identifier)
	}
	return ex
}

func applyStructuredData(rec *models.PropertyRecord, nodes []ldNode) {
	if len(nodes) == 0 {
		return
	}

	for _, rule := range fieldPrecedence {
		v := ldResolve(nodes, rule)
		if v == nil {
			continue
		}
		switch rule.fact {
		case factStreet:
			rec.Street = ldText(v)
		case factCity:
			rec.City = ldText(v)
		case factState:
			rec.State = ldText(v)
		case factZip:
			rec.ZipCode = ldText(v)
		case factBedrooms:
			rec.Bedrooms = positiveFrom(ldText(v))
		case factBathrooms:
			rec.Bathrooms = positiveFrom(ldText(v))
		case factLivingArea:
			rec.LivingArea = areaFrom(v)
		case factLotSize:
			rec.LotSize = areaFrom(v)
		case factYearBuilt:
			if y, ok := normalize.Year(ldText(v)); ok {
				rec.YearBuilt = &y
			}
		case factPropertyType:
			rec.PropertyType = typeLabel(ldText(v))
		case factPhoto:
			rec.PhotoURL = ldImage(v)
		case factPrice:
			rec.Price = positiveFrom(ldText(v))
		case factBroker:
			rec.BrokerName = ldText(v)
		}
	}

	if rec.PropertyType == "" {
		rec.PropertyType = specificType(nodes)
	}
}

// hasListingFacts reports whether the page produced anything that marks it
// as a listing: a street, zip, price or room count, or a city from structured
// data. A city read from loose "City, ST" text does not count since any page
// can name one.
func hasListingFacts(rec *models.PropertyRecord, looseCity bool) bool {
	if rec.Street != "" || rec.ZipCode != "" || rec.Price != nil || rec.Bedrooms != nil || rec.Bathrooms != nil {
		return true
	}
	return rec.City != "" && !looseCity
}

// applyTextFallback fills the fields still empty from meta tags and free
// text. It reports whether the city came from free text.
func applyTextFallback(rec *models.PropertyRecord, doc *goquery.Document, text string) bool {
	if rec.Price == nil {
		if v, ok := pickPrice(priceCandidates(doc, text)); ok {
			rec.Price = &v
		}
	}
	if rec.Bedrooms == nil {
		if v, ok := roomCount(bedroomRegex, text); ok {
			rec.Bedrooms = &v
		}
	}
	if rec.Bathrooms == nil {
		if v, ok := roomCount(bathroomRegex, text); ok {
			rec.Bathrooms = &v
		}
	}
	if rec.LivingArea == nil {
		if v, ok := areaFromText(text); ok {
			rec.LivingArea = &v
		}
	}
	if rec.City == "" {
		rec.City = metaContent(doc, "og:locality")
	}
	looseCity := false
	if rec.City == "" || rec.State == "" {
		city, state := cityStateFromText(text)
		if rec.City == "" && city != "" {
			rec.City = city
			looseCity = true
		}
		if rec.State == "" {
			rec.State = state
		}
	}
	if rec.ZipCode == "" {
		rec.ZipCode = zipFromText(text)
	}
	if rec.PropertyType == "" {
		rec.PropertyType = propertyTypeFromText(text)
	}
	return looseCity
}

func positiveFrom(s string) *float64 {
	if v, ok := normalize.PositiveNumber(s); ok {
		return &v
	}
	return nil
}

func areaFrom(v any) *float64 {
	raw, hint := ldQuantity(v)
	n, ok := normalize.PositiveNumber(raw)
	if !ok {
		return nil
	}
	sqft := normalize.ConvertArea(n, hint)
	return &sqft
}

// typeLabel turns a schema URL like https://schema.org/SingleFamilyResidence
// into a readable label and leaves plain text alone.
func typeLabel(s string) string {
	if i := strings.LastIndexAny(s, "/#"); i >= 0 && strings.Contains(s, "://") {
		return humanize(s[i+1:])
	}
	return s
}

func metaContent(doc *goquery.Document, property string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property="%s"], meta[name="%s"]`, property, property)).First()
	return strings.TrimSpace(sel.AttrOr("content", ""))
}

func pageTitle(doc *goquery.Document) string {
	title := metaContent(doc, "og:title")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return unknownTitle
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		title = string([]rune(title)[:maxTitleRunes])
	}
	return title
}

func siteName(doc *goquery.Document, pageURL string) string {
	if name := metaContent(doc, "og:site_name"); name != "" {
		return name
	}
	return hostOf(pageURL)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func resolveURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return r.String()
	}
	return b.ResolveReference(r).String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
