package services

import (
	"regexp"
	"strings"
)

// Matches reports whether a fetched page belongs to identifier: the identifier
// appears as a whole token in the page text or HTML, or literally in the page
// URL. Labels such as "MLS#" or "MLS:" end on punctuation, so a labelled
// number is still a whole token. There is no partial or fuzzy matching, so
// "12345" does not match a page about "123456".
func Matches(identifier, html, text, pageURL string) bool {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return false
	}

	if pageURL != "" && strings.Contains(strings.ToLower(pageURL), strings.ToLower(id)) {
		return true
	}

	re := identifierPattern(id)
	return re.MatchString(text) || re.MatchString(html)
}

func identifierPattern(id string) *regexp.Regexp {
	// \b only works next to word characters; ids like "A-1" still need a
	// non-alphanumeric boundary on both sides.
	return regexp.MustCompile(`(?i)(?:^|[^0-9A-Za-z])` + regexp.QuoteMeta(id) + `(?:$|[^0-9A-Za-z])`)
}
