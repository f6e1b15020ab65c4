package scraper

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ldKind tags what a structured-data node can contribute. A node may carry
// several kinds at once (a listing that is both a residence and has offers).
type ldKind uint8

const (
	kindResidence ldKind = 1 << iota
	kindOffer
	kindAgent
)

// ldNode is one schema.org object found in a JSON-LD block.
type ldNode struct {
	kind  ldKind
	types []string
	props map[string]any
}

func (n ldNode) is(k ldKind) bool {
	return n.kind&k != 0
}

var residenceTypes = map[string]bool{
	"singlefamilyresidence":   true,
	"residence":               true,
	"house":                   true,
	"apartment":               true,
	"apartmentcomplex":        true,
	"gatedresidencecommunity": true,
	"accommodation":           true,
	"suite":                   true,
	"realestatelisting":       true,
	"condominium":             true,
	"townhouse":               true,
}

// Generic types say nothing useful about the property itself.
var genericTypes = map[string]bool{
	"residence":         true,
	"accommodation":     true,
	"realestatelisting": true,
	"product":           true,
	"place":             true,
	"thing":             true,
}

var agentTypes = map[string]bool{
	"realestateagent": true,
}

// nestedKeys hold objects that are flattened into their own nodes.
var nestedKeys = []string{"mainEntity", "about", "itemOffered", "offers", "seller", "broker", "offeredBy", "provider"}

// fact names a record field that structured data can fill.
type fact string

const (
	factStreet       fact = "street"
	factCity         fact = "city"
	factState        fact = "state"
	factZip          fact = "zip"
	factBedrooms     fact = "bedrooms"
	factBathrooms    fact = "bathrooms"
	factLivingArea   fact = "living_area"
	factLotSize      fact = "lot_size"
	factYearBuilt    fact = "year_built"
	factPropertyType fact = "property_type"
	factPhoto        fact = "photo"
	factPrice        fact = "price"
	factBroker       fact = "broker"
)

// fieldRule lists, in order, the JSON key paths tried for one fact and the
// node kind allowed to supply it. kind 0 accepts any node.
type fieldRule struct {
	fact fact
	kind ldKind
	keys []string
}

// fieldPrecedence is first-match-wins: for each fact the keys are tried in
// order and, per key, nodes in document order.
var fieldPrecedence = []fieldRule{
	{factStreet, kindResidence, []string{"address.streetAddress", "streetAddress"}},
	{factCity, kindResidence, []string{"address.addressLocality", "addressLocality"}},
	{factState, kindResidence, []string{"address.addressRegion", "addressRegion"}},
	{factZip, kindResidence, []string{"address.postalCode", "postalCode"}},
	{factBedrooms, kindResidence, []string{"numberOfBedrooms", "numberOfBedroomsTotal", "bedrooms", "numberOfRooms"}},
	{factBathrooms, kindResidence, []string{"numberOfBathroomsTotal", "numberOfFullBathrooms", "numberOfBathrooms", "bathrooms"}},
	{factLivingArea, kindResidence, []string{"floorSize", "livingArea", "area"}},
	{factLotSize, kindResidence, []string{"lotSize", "landSize"}},
	{factYearBuilt, kindResidence, []string{"yearBuilt", "dateBuilt"}},
	{factPropertyType, kindResidence, []string{"propertyType", "additionalType", "accommodationCategory"}},
	{factPhoto, 0, []string{"image", "photo", "photos", "thumbnailUrl"}},
	{factPrice, kindOffer, []string{"offers.price", "offers.lowPrice", "offers.priceSpecification.price", "price", "lowPrice", "priceSpecification.price"}},
	{factBroker, kindAgent, []string{"name", "legalName"}},
}

var ldWhitespace = regexp.MustCompile(`\s+`)

// parseJSONLD collects every schema.org node from the page's JSON-LD
// scripts. Malformed blocks are skipped.
func parseJSONLD(doc *goquery.Document) []ldNode {
	var nodes []ldNode
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var payload any
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			// some sites emit raw newlines inside strings
			if err := json.Unmarshal([]byte(ldWhitespace.ReplaceAllString(raw, " ")), &payload); err != nil {
				return
			}
		}
		nodes = flattenLD(payload, nodes)
	})
	return nodes
}

func flattenLD(payload any, out []ldNode) []ldNode {
	switch t := payload.(type) {
	case []any:
		for _, item := range t {
			out = flattenLD(item, out)
		}
	case map[string]any:
		if graph, ok := t["@graph"]; ok {
			out = flattenLD(graph, out)
		}
		types := ldTypes(t["@type"])
		out = append(out, ldNode{kind: classify(types, t), types: types, props: t})
		for _, key := range nestedKeys {
			if child, ok := t[key]; ok {
				out = flattenLD(child, out)
			}
		}
	}
	return out
}

func ldTypes(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func classify(types []string, props map[string]any) ldKind {
	var k ldKind
	for _, typ := range types {
		name := typeName(typ)
		if residenceTypes[name] {
			k |= kindResidence
		}
		if agentTypes[name] {
			k |= kindAgent
		}
		if name == "offer" || name == "aggregateoffer" {
			k |= kindOffer
		}
	}
	if _, ok := props["offers"]; ok {
		k |= kindOffer
	}
	return k
}

// lookup resolves a dotted key path. Arrays along the way resolve to their
// first element that has the next key.
func lookup(v any, path string) any {
	cur := v
	for _, part := range strings.Split(path, ".") {
		cur = child(cur, part)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func child(v any, key string) any {
	switch t := v.(type) {
	case map[string]any:
		return t[key]
	case []any:
		for _, item := range t {
			if c := child(item, key); c != nil {
				return c
			}
		}
	}
	return nil
}

// ldResolve returns the first value for rule following fieldPrecedence.
func ldResolve(nodes []ldNode, rule fieldRule) any {
	for _, key := range rule.keys {
		for _, n := range nodes {
			if rule.kind != 0 && !n.is(rule.kind) {
				continue
			}
			if v := lookup(n.props, key); !emptyValue(v) {
				return v
			}
		}
	}
	return nil
}

func emptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// ldText renders a scalar (or the name of an object) as text.
func ldText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strings.TrimSpace(formatFloat(t))
	case []any:
		if len(t) > 0 {
			return ldText(t[0])
		}
	case map[string]any:
		if name, ok := t["name"]; ok {
			return ldText(name)
		}
		if val, ok := t["value"]; ok {
			return ldText(val)
		}
	}
	return ""
}

// ldQuantity returns a numeric value and a unit hint. QuantitativeValue
// objects carry the unit in unitCode (UN/CEFACT: MTK square metre, FTK
// square foot) or unitText.
func ldQuantity(v any) (string, string) {
	switch t := v.(type) {
	case map[string]any:
		hint := ldText(t["unitText"])
		if code := strings.ToUpper(ldText(t["unitCode"])); code == "MTK" {
			hint = "m2"
		}
		return ldText(t["value"]), hint
	case []any:
		if len(t) > 0 {
			return ldQuantity(t[0])
		}
	}
	s := ldText(v)
	return s, s
}

// ldImage returns the first image URL in a string, ImageObject or list.
func ldImage(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if u := ldImage(item); u != "" {
				return u
			}
		}
	case map[string]any:
		for _, key := range []string{"url", "contentUrl", "thumbnailUrl"} {
			if u := ldImage(t[key]); u != "" {
				return u
			}
		}
	}
	return ""
}

// specificType humanizes the first non-generic residence type, e.g.
// SingleFamilyResidence becomes "Single Family Residence".
func specificType(nodes []ldNode) string {
	for _, n := range nodes {
		if !n.is(kindResidence) {
			continue
		}
		for _, typ := range n.types {
			name := typeName(typ)
			if genericTypes[name] || !residenceTypes[name] {
				continue
			}
			if i := strings.LastIndexAny(typ, "/#"); i >= 0 {
				typ = typ[i+1:]
			}
			return humanize(typ)
		}
	}
	return ""
}

// typeName lower-cases a schema.org type and drops any vocabulary prefix.
func typeName(typ string) string {
	name := strings.ToLower(strings.TrimSpace(typ))
	if i := strings.LastIndexAny(name, "/#:"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func humanize(camel string) string {
	var b strings.Builder
	for i, r := range camel {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
