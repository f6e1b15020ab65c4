package scraper

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var relatedAnchorWords = []string{"similar", "nearby", "comparable", "related", "listing"}

// RelatedCandidates collects same-site links whose anchor text suggests a
// comparable listing. Links are scored like search results, ranked by score
// and capped at max.
func RelatedCandidates(doc *goquery.Document, baseURL string, scorer *Scorer, max int) []string {
	if doc == nil || max <= 0 {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil
	}
	if scorer == nil {
		scorer = NewScorer(nil, nil)
	}
	baseHost := strings.TrimPrefix(strings.ToLower(base.Hostname()), "www.")

	type scored struct {
		url   string
		score int
	}
	var found []scored
	seen := map[string]bool{stripFragment(base): true}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		text := strings.ToLower(a.Text())
		if !containsAny(text, relatedAnchorWords) {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(a.AttrOr("href", "")))
		if err != nil {
			return
		}
		u := base.ResolveReference(ref)
		if strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.") != baseHost {
			return
		}
		key := stripFragment(u)
		if seen[key] {
			return
		}
		seen[key] = true

		score := scorer.Score(key, "")
		if score < 0 {
			return
		}
		found = append(found, scored{url: key, score: score})
	})

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].score > found[j].score
	})
	if len(found) > max {
		found = found[:max]
	}
	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.url
	}
	return out
}

func stripFragment(u *url.URL) string {
	c := *u
	c.Fragment = ""
	return c.String()
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
