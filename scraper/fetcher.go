package scraper

import (
	"context"
	"log"

	"estate_intel/httputil"
)

// Page is a fetched document.
type Page = httputil.Page

// Fetcher retrieves one URL. A non-2xx response returns the page together
// with an error carrying the status.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// FetcherFactory builds an independent fetcher. Comparable workers each get
// their own so no client state is shared between goroutines.
type FetcherFactory func() Fetcher

// smallChallengeBody bounds the size of pages inspected for challenge
// markers. Real listings are larger and may mention "captcha" in a footer.
const smallChallengeBody = 50 * 1024

// FallbackFetcher tries plain HTTP first and retries once through the
// browser when the response looks like a bot wall.
type FallbackFetcher struct {
	Primary  Fetcher
	Fallback Fetcher
}

func (f *FallbackFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	page, err := f.Primary.Fetch(ctx, url)
	if f.Fallback == nil || !looksBlocked(page, err) {
		return page, err
	}
	if ctx.Err() != nil {
		return page, err
	}
	log.Printf("Warning: %s looks blocked over HTTP, retrying in browser", url)
	return f.Fallback.Fetch(ctx, url)
}

func looksBlocked(page *Page, err error) bool {
	if httputil.IsBlockingStatus(httputil.StatusOf(err)) {
		return true
	}
	if page == nil || len(page.Body) > smallChallengeBody {
		return false
	}
	return httputil.DetectChallenge(page.Body) != ""
}
