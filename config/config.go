package config

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
	FetchModeAuto    = "auto"

	discoveryConfigPath = "config/discovery.yaml"
	watchlistDir        = "config/watchlist"
)

type Config struct {
	HTTP        HTTPConfig
	Discovery   DiscoveryConfig
	Comparables ComparablesConfig
	Scheduler   SchedulerConfig
	S3          S3Config
	DBPath      string
	DatabaseURL string
	LogLevel    string
	LogFile     string
	Watchlist   []WatchEntry
}

type HTTPConfig struct {
	ProxyURL      string
	UserAgent     string
	SearchTimeout time.Duration
	PageTimeout   time.Duration
	RequestRate   time.Duration // minimum gap between requests to one host
	FetchMode     string
}

// DiscoveryConfig tunes candidate search. The domain lists extend the
// built-in allow and noise lists, they never replace them.
type DiscoveryConfig struct {
	MaxQueries       int      `yaml:"max_queries"`
	MaxCandidates    int      `yaml:"max_candidates"`
	AllowDomains     []string `yaml:"allow_domains"`
	NoiseDomains     []string `yaml:"noise_domains"`
	SiteRestrictions []string `yaml:"site_restrictions"`
}

type ComparablesConfig struct {
	Workers int
	Max     int
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether report archiving is configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// WatchEntry is one listing re-analyzed on every scheduled run.
type WatchEntry struct {
	ID          string `yaml:"id"`
	URL         string `yaml:"url"`
	Identifier  string `yaml:"identifier"`
	Region      string `yaml:"region"`
	Comparables int    `yaml:"comparables"`
	Output      string `yaml:"output"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTP: HTTPConfig{
			ProxyURL:      os.Getenv("PROXY_URL"),
			UserAgent:     getEnv("USER_AGENT", DefaultUserAgent),
			SearchTimeout: getEnvDuration("SEARCH_TIMEOUT", 8*time.Second),
			PageTimeout:   getEnvDuration("PAGE_TIMEOUT", 20*time.Second),
			RequestRate:   time.Duration(getEnvInt("REQUEST_RATE_MS", 500)) * time.Millisecond,
			FetchMode:     strings.ToLower(getEnv("FETCH_MODE", FetchModeHTTP)),
		},
		Discovery: DiscoveryConfig{
			MaxQueries:    getEnvInt("MAX_QUERIES", 8),
			MaxCandidates: getEnvInt("MAX_CANDIDATES", 10),
		},
		Comparables: ComparablesConfig{
			Workers: getEnvInt("COMPARABLE_WORKERS", 6),
			Max:     getEnvInt("MAX_COMPARABLES", 5),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("WATCH_CRON"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		DBPath:      getEnv("DB_PATH", "estate.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", "estate.log"),
	}

	if interval := os.Getenv("WATCH_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	switch cfg.HTTP.FetchMode {
	case FetchModeHTTP, FetchModeBrowser, FetchModeAuto:
	default:
		cfg.HTTP.FetchMode = FetchModeHTTP
	}

	if err := cfg.Discovery.merge(discoveryConfigPath); err != nil {
		return nil, err
	}

	watchlist, err := LoadWatchlist(watchlistDir)
	if err != nil {
		return nil, err
	}
	cfg.Watchlist = watchlist

	return cfg, nil
}

// merge overlays the YAML file at path. Limits set in the file win over the
// environment; domain lists are appended.
func (d *DiscoveryConfig) merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var file DiscoveryConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	if file.MaxQueries > 0 {
		d.MaxQueries = file.MaxQueries
	}
	if file.MaxCandidates > 0 {
		d.MaxCandidates = file.MaxCandidates
	}
	d.AllowDomains = append(d.AllowDomains, file.AllowDomains...)
	d.NoiseDomains = append(d.NoiseDomains, file.NoiseDomains...)
	d.SiteRestrictions = append(d.SiteRestrictions, file.SiteRestrictions...)
	return nil
}

// LoadWatchlist reads every *.yaml file in dir. Each file holds either one
// entry or a list of entries. A missing directory is an empty watchlist.
func LoadWatchlist(dir string) ([]WatchEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var out []WatchEntry
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		var list []WatchEntry
		if err := yaml.Unmarshal(data, &list); err != nil {
			var single WatchEntry
			if err := yaml.Unmarshal(data, &single); err != nil {
				return nil, err
			}
			list = []WatchEntry{single}
		}

		for i, w := range list {
			if w.URL == "" && w.Identifier == "" {
				continue
			}
			if w.ID == "" {
				w.ID = strings.TrimSuffix(name, ".yaml")
				if len(list) > 1 {
					w.ID += "-" + strconv.Itoa(i+1)
				}
			}
			out = append(out, w)
		}
	}
	return out, nil
}

// DefaultUserAgent is a desktop browser signature; listing portals serve
// stripped pages to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
