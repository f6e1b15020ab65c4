package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPFetcher_OK(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html><title>ok</title></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), "test-agent", 0)
	page, err := f.Fetch(context.Background(), srv.URL+"/listing/1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if page.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", page.Status)
	}
	if string(page.Body) != "<html><title>ok</title></html>" {
		t.Fatalf("unexpected body %q", page.Body)
	}
	if gotUA != "test-agent" {
		t.Fatalf("expected user agent to be sent, got %q", gotUA)
	}
}

func TestHTTPFetcher_NonOKKeepsPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Our systems have detected unusual traffic"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), "test-agent", 0)
	page, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected error for 403")
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Status != http.StatusForbidden {
		t.Fatalf("expected FetchError with 403, got %v", err)
	}
	if StatusOf(err) != http.StatusForbidden {
		t.Fatalf("StatusOf = %d", StatusOf(err))
	}
	if page == nil || DetectChallenge(page.Body) != "unusual traffic" {
		t.Fatalf("expected challenge body to be kept")
	}
}

func TestHTTPFetcher_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewHTTPFetcher(&http.Client{Timeout: time.Second}, "test-agent", 0)
	page, err := f.Fetch(context.Background(), url)
	if err == nil || page != nil {
		t.Fatalf("expected network error without page")
	}
	if StatusOf(err) != 0 {
		t.Fatalf("network error must carry no status")
	}
}

func TestHTTPFetcher_RateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), "test-agent", time.Hour)
	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := f.Fetch(ctx, srv.URL); err == nil {
		t.Fatalf("second fetch to same host must wait for the limiter and fail on deadline")
	}
}

func TestDetectChallenge(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"Please complete the CAPTCHA", "captcha"},
		{"Request unsuccessful. Incapsula incident ID: 1", "request unsuccessful. incapsula"},
		{"<html>Welcome home</html>", ""},
	}
	for _, tt := range tests {
		if got := DetectChallenge([]byte(tt.body)); got != tt.want {
			t.Errorf("DetectChallenge(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
	if !IsBlockingStatus(429) || IsBlockingStatus(404) {
		t.Fatalf("unexpected blocking status classification")
	}
}
