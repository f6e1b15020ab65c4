package scraper

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"
)

// Provider is one search engine endpoint. Parse returns result links in page
// order, already unwrapped from the engine's redirect form.
type Provider struct {
	Name     string
	Endpoint string // query is appended URL-escaped
	// Strict providers return mostly off-topic results; only positively
	// scored links are kept.
	Strict bool
	// ChallengeStatuses are extra statuses this provider uses for bot walls.
	ChallengeStatuses []int
	Parse             func(body []byte) ([]string, error)
}

func (p Provider) searchURL(query string) string {
	return p.Endpoint + url.QueryEscape(query)
}

func (p Provider) isChallengeStatus(status int) bool {
	for _, s := range p.ChallengeStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// DefaultProviders returns the fixed provider order: duckduckgo, bing, bing_rss.
func DefaultProviders() []Provider {
	return []Provider{
		{
			Name:              "duckduckgo",
			Endpoint:          "https://html.duckduckgo.com/html/?q=",
			ChallengeStatuses: []int{http.StatusAccepted},
			Parse:             parseDuckDuckGo,
		},
		{
			Name:     "bing",
			Endpoint: "https://www.bing.com/search?q=",
			Parse:    parseBing,
		},
		{
			Name:     "bing_rss",
			Endpoint: "https://www.bing.com/search?format=rss&q=",
			Strict:   true,
			Parse:    parseBingRSS,
		},
	}
}

func parseDuckDuckGo(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo html: %w", err)
	}
	var links []string
	doc.Find("a.result__a").Each(func(_ int, a *goquery.Selection) {
		if link := decodeDDGLink(a.AttrOr("href", "")); link != "" {
			links = append(links, link)
		}
	})
	return links, nil
}

// decodeDDGLink unwraps DuckDuckGo's /l/?uddg=<encoded> redirect. Hrefs are
// often protocol-relative or relative to the result page.
func decodeDDGLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	} else if strings.HasPrefix(href, "/") {
		href = "https://duckduckgo.com" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if v := u.Query().Get("uddg"); v != "" {
		return v
	}
	if strings.Contains(u.Hostname(), "duckduckgo.com") {
		return ""
	}
	return u.String()
}

func parseBing(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse bing html: %w", err)
	}
	var links []string
	doc.Find("li.b_algo h2 a").Each(func(_ int, a *goquery.Selection) {
		if link := decodeBingLink(a.AttrOr("href", "")); link != "" {
			links = append(links, link)
		}
	})
	return links, nil
}

// decodeBingLink unwraps /ck/a?...&u=a1<base64url> click-tracking links.
// Anything that fails to decode is kept as-is.
func decodeBingLink(href string) string {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil || href == "" {
		return ""
	}
	if !strings.HasPrefix(u.Path, "/ck/a") {
		return href
	}
	enc := u.Query().Get("u")
	if !strings.HasPrefix(enc, "a1") {
		return href
	}
	enc = enc[2:]
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(enc, "="))
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(enc)
		if err != nil {
			return href
		}
	}
	return string(raw)
}

// parseBingRSS reads <item><link> from the RSS variant. An HTML parser would
// treat <link> as a void element, so this goes through an XML tree.
func parseBingRSS(body []byte) ([]string, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse bing rss: %w", err)
	}
	nodes, err := xmlquery.QueryAll(doc, "//item/link")
	if err != nil {
		return nil, fmt.Errorf("query bing rss: %w", err)
	}
	var links []string
	for _, n := range nodes {
		if link := strings.TrimSpace(n.InnerText()); link != "" {
			links = append(links, link)
		}
	}
	return links, nil
}
