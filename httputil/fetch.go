package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxBodySize = 8 * 1024 * 1024

// Page is a fetched document. Status is set even for non-2xx responses so
// callers can classify blocking.
type Page struct {
	URL    string
	Status int
	Body   []byte
	Header http.Header
}

type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch error (status %d)", e.Status)
	}
	return fmt.Sprintf("fetch error (status %d): %v", e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}

// HTTPFetcher issues browser-like GET requests with a per-host rate limit.
// It does not retry.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	every     time.Duration
	limiters  map[string]*rate.Limiter
	mu        sync.Mutex
}

func NewHTTPFetcher(client *http.Client, userAgent string, every time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:    client,
		userAgent: userAgent,
		every:     every,
		limiters:  make(map[string]*rate.Limiter),
	}
}

func (f *HTTPFetcher) limiterFor(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.limiters[host]; ok {
		return l
	}
	limit := rate.Inf
	if f.every > 0 {
		limit = rate.Every(f.every)
	}
	l := rate.NewLimiter(limit, 1)
	f.limiters[host] = l
	return l
}

// Fetch returns the page for any response that arrived. A non-2xx status is
// reported as a *FetchError alongside the page so the body stays inspectable.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("parse url: %w", err)}
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}

	if err := f.limiterFor(u.Hostname()).Wait(ctx); err != nil {
		return nil, &FetchError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("create request: %w", err)}
	}
	SetBrowserHeaders(req, f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	page := &Page{
		URL:    resp.Request.URL.String(),
		Status: resp.StatusCode,
		Body:   body,
		Header: resp.Header,
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return page, &FetchError{Status: resp.StatusCode}
	}
	return page, nil
}

// SetBrowserHeaders makes a request look like a desktop browser navigation.
func SetBrowserHeaders(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}
