package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWatchlist(t *testing.T) {
	entries, err := LoadWatchlist(filepath.Join("testdata", "watchlist"))
	if err != nil {
		t.Fatalf("load watchlist: %v", err)
	}
	// multi.yaml sorts before single.yaml; the entry with neither url nor identifier is skipped
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].ID != "multi-1" || entries[0].Identifier != "778899" || entries[0].Region != "FL" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].ID != "named" {
		t.Fatalf("explicit id must be kept, got %q", entries[1].ID)
	}
	if entries[2].ID != "single" || entries[2].URL == "" {
		t.Fatalf("unexpected single-file entry %+v", entries[2])
	}
}

func TestLoadWatchlist_MissingDir(t *testing.T) {
	entries, err := LoadWatchlist(filepath.Join("testdata", "does-not-exist"))
	if err != nil {
		t.Fatalf("missing dir must not fail: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty watchlist, got %d", len(entries))
	}
}

func TestDiscoveryMerge(t *testing.T) {
	d := DiscoveryConfig{MaxQueries: 8, MaxCandidates: 10, AllowDomains: []string{"zillow.com"}}
	if err := d.merge(filepath.Join("testdata", "discovery.yaml")); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if d.MaxQueries != 8 {
		t.Fatalf("unset limit must keep env value, got %d", d.MaxQueries)
	}
	if d.MaxCandidates != 4 {
		t.Fatalf("expected max candidates 4, got %d", d.MaxCandidates)
	}
	if len(d.AllowDomains) != 2 || d.AllowDomains[1] != "homes.com" {
		t.Fatalf("allow domains must be appended, got %v", d.AllowDomains)
	}
	if len(d.NoiseDomains) != 1 || len(d.SiteRestrictions) != 1 {
		t.Fatalf("unexpected lists %v %v", d.NoiseDomains, d.SiteRestrictions)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_TIMEOUT", "3s")
	if got := getEnvDuration("TEST_TIMEOUT", time.Second); got != 3*time.Second {
		t.Fatalf("expected 3s, got %v", got)
	}
	t.Setenv("TEST_TIMEOUT", "soon")
	if got := getEnvDuration("TEST_TIMEOUT", time.Second); got != time.Second {
		t.Fatalf("invalid duration must fall back, got %v", got)
	}
}
