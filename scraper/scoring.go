package scraper

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	scoreAllowDomain = 50
	scoreNoiseDomain = -100
	scoreIdentifier  = 30
	scoreListingPath = 10
)

// DefaultAllowDomains are real-estate portals whose pages are worth fetching.
var DefaultAllowDomains = []string{
	"zillow.com", "realtor.com", "redfin.com", "trulia.com", "homes.com", "movoto.com",
	"remax.com", "century21.com", "coldwellbankerhomes.com", "compass.com", "kw.com",
	"sothebysrealty.com", "realtor.ca", "rightmove.co.uk", "zoopla.co.uk", "idealista.com",
	"immobilienscout24.de", "seloger.com", "zapimoveis.com.br", "vivareal.com.br",
	"fotocasa.es", "immobiliare.it", "loopnet.com", "apartments.com", "point2homes.com",
	"har.com", "estately.com",
}

// DefaultNoiseDomains never hold listings: social media, encyclopedias and
// the search engines themselves.
var DefaultNoiseDomains = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com", "youtube.com", "pinterest.com",
	"linkedin.com", "tiktok.com", "reddit.com", "wikipedia.org", "duckduckgo.com", "bing.com",
	"google.com", "microsoft.com", "yahoo.com", "amazon.com",
}

var (
	listingPathRegex = regexp.MustCompile(`(?i)/(?:homedetails|home|homes|listing|listings|property|properties|propiedad|inmueble|imovel|immobile|expose|annonce|realestateandhomes-detail|for-sale|for_sale|mls)(?:[/_-]|$)`)
	idLikeRegex      = regexp.MustCompile(`\d{6,}`)
)

// Scorer ranks candidate URLs. It holds no per-run state.
type Scorer struct {
	allow []string
	noise []string
}

// NewScorer builds a scorer from the default domain lists plus extra entries.
func NewScorer(extraAllow, extraNoise []string) *Scorer {
	return &Scorer{
		allow: mergeDomains(DefaultAllowDomains, extraAllow),
		noise: mergeDomains(DefaultNoiseDomains, extraNoise),
	}
}

func mergeDomains(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, d := range append(append([]string{}, base...), extra...) {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// Score returns the integer relevance of rawURL for identifier. Unparseable
// or non-http URLs score as noise.
func (s *Scorer) Score(rawURL, identifier string) int {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return scoreNoiseDomain
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	score := 0
	if domainIn(host, s.allow) {
		score += scoreAllowDomain
	}
	if domainIn(host, s.noise) {
		score += scoreNoiseDomain
	}

	pathQuery := strings.ToLower(u.EscapedPath() + "?" + u.RawQuery)
	if id := strings.ToLower(strings.TrimSpace(identifier)); id != "" {
		if strings.Contains(pathQuery, id) {
			score += scoreIdentifier
		}
	} else if idLikeRegex.MatchString(u.Path) {
		score += scoreIdentifier
	}

	if listingPathRegex.MatchString(u.Path) {
		score += scoreListingPath
	}
	return score
}

// domainIn reports whether host equals one of domains or is a subdomain of it.
func domainIn(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
