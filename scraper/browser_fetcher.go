package scraper

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"estate_intel/httputil"
)

// BrowserFetcher renders pages in a persistent Chromium profile. It is used
// for portals that only serve challenge pages to plain HTTP clients.
type BrowserFetcher struct {
	userAgent   string
	timeout     time.Duration
	headless    bool
	mu          sync.Mutex
	pw          *playwright.Playwright
	context     playwright.BrowserContext
	initialized bool
}

func NewBrowserFetcher(userAgent string, timeout time.Duration, headless bool) *BrowserFetcher {
	return &BrowserFetcher{userAgent: userAgent, timeout: timeout, headless: headless}
}

func (f *BrowserFetcher) ensureBrowser() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.initialized {
		return nil
	}

	var err error
	f.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	cwd, _ := os.Getwd()
	userDataDir := filepath.Join(cwd, "browser_data")
	f.context, err = f.pw.Chromium.LaunchPersistentContext(userDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:  playwright.Bool(f.headless),
		UserAgent: playwright.String(f.userAgent),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		f.pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	f.initialized = true
	return nil
}

func (f *BrowserFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.context != nil {
		f.context.Close()
	}
	if f.pw != nil {
		f.pw.Stop()
	}
	f.initialized = false
}

// Fetch navigates to url, clears consent banners and challenge walls, and
// returns the rendered DOM. The navigation status is reported like HTTPFetcher
// does.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, &httputil.FetchError{Err: err}
	}
	if err := f.ensureBrowser(); err != nil {
		return nil, &httputil.FetchError{Err: err}
	}

	page, err := f.context.NewPage()
	if err != nil {
		return nil, &httputil.FetchError{Err: fmt.Errorf("failed to create page: %w", err)}
	}
	defer page.Close()

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(f.timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return nil, &httputil.FetchError{Err: fmt.Errorf("navigate: %w", err)}
	}

	humanDelay(1500, 3000)
	handleConsent(page)

	content, err := page.Content()
	if err != nil {
		return nil, &httputil.FetchError{Err: fmt.Errorf("read content: %w", err)}
	}
	if trigger := detectIncapsula(content); trigger != "" {
		log.Printf("Challenge detected on %s: %s", url, trigger)
		handleIncapsula(page)
		if content, err = page.Content(); err != nil {
			return nil, &httputil.FetchError{Err: fmt.Errorf("read content: %w", err)}
		}
	}

	result := &Page{URL: page.URL(), Body: []byte(content)}
	if resp != nil {
		result.Status = resp.Status()
		result.Header = make(map[string][]string)
		for k, v := range resp.Headers() {
			result.Header.Set(k, v)
		}
	}
	if result.Status != 0 && (result.Status < 200 || result.Status >= 300) && detectIncapsula(content) != "" {
		return result, &httputil.FetchError{Status: result.Status}
	}
	return result, nil
}

func humanDelay(minMs, maxMs int) {
	delay := minMs + rand.Intn(maxMs-minMs)
	time.Sleep(time.Duration(delay) * time.Millisecond)
}

// detectIncapsula reports the wall marker present in rendered content.
func detectIncapsula(content string) string {
	triggers := []string{
		"Request unsuccessful. Incapsula",
		"Incapsula incident ID",
		"Access Denied",
		"This request was blocked",
	}
	for _, t := range triggers {
		if strings.Contains(content, t) {
			return t
		}
	}
	return ""
}

func handleIncapsula(page playwright.Page) {
	page.WaitForTimeout(2000)

	clickSelectors := []string{
		"iframe#main-iframe",
		"[id*='checkbox']",
		"input[type='checkbox']",
		"button:has-text('Verify')",
		"button:has-text('Continue')",
		"div[class*='verify']",
	}
	for _, selector := range clickSelectors {
		el := page.Locator(selector).First()
		if visible, _ := el.IsVisible(); visible {
			log.Printf("Clicking challenge element: %s", selector)
			el.Click()
			page.WaitForTimeout(3000)
			break
		}
	}

	for _, frame := range page.Frames() {
		if frame == page.MainFrame() {
			continue
		}
		for _, selector := range []string{"[id*='checkbox']", "input[type='checkbox']", "div[role='button']", "span[role='checkbox']"} {
			el := frame.Locator(selector).First()
			if visible, _ := el.IsVisible(); visible {
				log.Printf("Clicking iframe element: %s", selector)
				el.Click()
				page.WaitForTimeout(3000)

				if content, _ := page.Content(); detectIncapsula(content) == "" {
					log.Println("Challenge passed")
					return
				}
			}
		}
	}
}

func handleConsent(page playwright.Page) {
	consentSelectors := []string{
		"button:has-text('Consent')",
		"button[id*='accept']",
		"button[class*='accept']",
		"button[class*='consent']",
		"#didomi-notice-agree-button",
		"#onetrust-accept-btn-handler",
		"button:has-text('Accept All')",
		"button:has-text('Accept')",
		"button:has-text('Aceptar')",
		"button:has-text('Accepter')",
		"button:has-text('Akzeptieren')",
		"button:has-text('Agree')",
	}

	for _, selector := range consentSelectors {
		btn := page.Locator(selector).First()
		if visible, _ := btn.IsVisible(); visible {
			log.Printf("Clicking consent button: %s", selector)
			btn.Click()
			page.WaitForTimeout(1000)
			break
		}
	}
}
