package httputil

import (
	"crypto/tls"
	"log"
	"net/http"
	"net/url"
	"time"

	"estate_intel/config"
)

// Clients holds the two timeout classes used by the tool.
type Clients struct {
	Search *http.Client // short timeout, search providers
	Page   *http.Client // long timeout, listing pages
}

func NewClients(cfg *config.HTTPConfig) *Clients {
	return &Clients{
		Search: newClient(cfg.ProxyURL, cfg.SearchTimeout),
		Page:   newClient(cfg.ProxyURL, cfg.PageTimeout),
	}
}

func newClient(proxy string, timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false,
		TLSNextProto:      make(map[string]func(string, *tls.Conn) http.RoundTripper),
	}
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			log.Printf("Warning: ignoring invalid PROXY_URL: %v", err)
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
