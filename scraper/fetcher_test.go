package scraper

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

func TestFallbackFetcher(t *testing.T) {
	const url = "https://portal.example.com/l/1"
	bigPage := "<html>" + strings.Repeat("<p>listing</p>", 5000) + "<footer>protected by captcha</footer></html>"

	tests := []struct {
		name       string
		primary    stubResponse
		noFallback bool
		escalated  bool
	}{
		{"blocking status", stubResponse{status: http.StatusForbidden, body: []byte("unusual traffic")}, false, true},
		{"challenge page with 200", stubResponse{body: []byte("<html>Are you a robot?</html>")}, false, true},
		{"normal page", stubResponse{body: []byte("<html><h1>3 bed house</h1></html>")}, false, false},
		{"large page mentioning captcha", stubResponse{body: []byte(bigPage)}, false, false},
		{"not found", stubResponse{status: http.StatusNotFound}, false, false},
		{"no browser configured", stubResponse{status: http.StatusForbidden}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &stubFetcher{routes: map[string]stubResponse{url: tt.primary}}
			browser := &stubFetcher{routes: map[string]stubResponse{url: {body: []byte("<html>rendered</html>")}}}
			f := &FallbackFetcher{Primary: primary}
			if !tt.noFallback {
				f.Fallback = browser
			}

			page, _ := f.Fetch(context.Background(), url)
			if got := len(browser.calls) == 1; got != tt.escalated {
				t.Fatalf("escalated = %v, want %v", got, tt.escalated)
			}
			if tt.escalated && (page == nil || string(page.Body) != "<html>rendered</html>") {
				t.Fatalf("expected the browser page, got %+v", page)
			}
			if len(primary.calls) != 1 {
				t.Fatalf("primary must be called once, got %d", len(primary.calls))
			}
		})
	}
}

func TestFallbackFetcher_CancelledContextDoesNotEscalate(t *testing.T) {
	const url = "https://portal.example.com/l/2"
	primary := &stubFetcher{routes: map[string]stubResponse{url: {status: http.StatusTooManyRequests}}}
	browser := &stubFetcher{routes: map[string]stubResponse{url: {}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &FallbackFetcher{Primary: primary, Fallback: browser}
	if _, err := f.Fetch(ctx, url); err == nil {
		t.Fatalf("expected the primary error to surface")
	}
	if len(browser.calls) != 0 {
		t.Fatalf("browser must not run after cancellation")
	}
}
