package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"estate_intel/models"
)

var (
	streetReplacements = map[string]string{
		"street":    "st",
		"avenue":    "ave",
		"drive":     "dr",
		"road":      "rd",
		"boulevard": "blvd",
		"lane":      "ln",
		"court":     "ct",
		"place":     "pl",
		"circle":    "cir",
		"crescent":  "cres",
		"terrace":   "ter",
		"highway":   "hwy",
		"parkway":   "pkwy",
		"square":    "sq",
		"north":     "n",
		"south":     "s",
		"east":      "e",
		"west":      "w",
		"northeast": "ne",
		"northwest": "nw",
		"southeast": "se",
		"southwest": "sw",
		"apartment": "apt",
		"suite":     "ste",
		"floor":     "fl",
		"building":  "bldg",
		"calle":     "c",
		"avenida":   "av",
		"rua":       "r",
	}
	nonAlnumRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// Fingerprint identifies a property independently of the page it was read
// from, so the same home seen on two portals hashes the same. A city alone
// is shared by many homes, so records without a street fall back to their
// source URL.
func Fingerprint(rec *models.PropertyRecord) string {
	if rec == nil {
		return ""
	}
	addr := NormalizeAddress(rec.Address())
	var input string
	if rec.Street == "" || addr == "" {
		input = "url|" + NormalizeURL(rec.SourceURL)
	} else {
		input = fmt.Sprintf("%s|%s|%s|%s|%s",
			addr,
			rounded(rec.Bedrooms),
			rounded(rec.Bathrooms),
			rounded(rec.LivingArea),
			strings.ToLower(rec.PropertyType),
		)
	}
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

// NormalizeAddress lowercases, strips punctuation and abbreviates street
// words one token at a time.
func NormalizeAddress(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	addr = nonAlnumRegex.ReplaceAllString(addr, " ")
	words := strings.Fields(addr)
	for i, w := range words {
		if abbrev, ok := streetReplacements[w]; ok {
			words[i] = abbrev
		}
	}
	return strings.Join(words, " ")
}

// NormalizeURL drops scheme, www, query, fragment and trailing slash.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return host + strings.TrimRight(u.Path, "/")
}

func rounded(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 0, 64)
}
