package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/worker"
)

// ErrRobotsDisallowed is wrapped in a FetchError when robots.txt forbids a URL
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// Fetcher retrieves raw page content for a URL
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// Page is a fetched document
type Page struct {
	URL          string     `json:"url"`
	FinalURL     string     `json:"final_url"`
	Body         string     `json:"body"`
	ContentType  string     `json:"content_type,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// Options configures an HTTPFetcher
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	InsecureTLS  bool
	HTTPProxy    string
	HTTPSProxy   string
	NoProxy      string
	Limiter      *worker.Limiter // optional per-domain politeness
	Robots       *RobotsChecker  // optional robots.txt gate
}

// OptionsFromConfig maps the http section of the configuration onto fetcher options
func OptionsFromConfig(cfg model.HTTPConfig) Options {
	return Options{
		Timeout:      cfg.Timeout,
		UserAgent:    cfg.UserAgent,
		MaxBodyBytes: cfg.MaxBodyBytes,
		InsecureTLS:  cfg.InsecureTLS,
		HTTPProxy:    cfg.HTTPProxy,
		HTTPSProxy:   cfg.HTTPSProxy,
		NoProxy:      cfg.NoProxy,
	}
}

// HTTPFetcher fetches pages over HTTP with a timeout, size limit and identifying header
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *worker.Limiter
	robots     *RobotsChecker
}

// NewHTTPFetcher creates a new HTTPFetcher
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 2_000_000
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy)
	if opts.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in via config
	}

	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBodyBytes,
		limiter:   opts.Limiter,
		robots:    opts.Robots,
	}
}

// Fetch retrieves the page at rawURL. Non-2xx responses and transport
// failures are returned as *model.FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if f.robots != nil {
		allowed, delay, _ := f.robots.CanFetch(ctx, rawURL)
		if !allowed {
			return nil, &model.FetchError{URL: rawURL, Attempts: 1, Err: ErrRobotsDisallowed}
		}
		if delay > 0 && f.limiter != nil {
			if host := hostOf(rawURL); host != "" {
				f.limiter.SetDomainRate(host, 1/delay.Seconds(), 1)
			}
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, &model.FetchError{URL: rawURL, Attempts: 1, Err: fmt.Errorf("rate limit: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &model.FetchError{URL: rawURL, Attempts: 1, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/plain;q=0.8,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &model.FetchError{URL: rawURL, Attempts: 1, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &model.FetchError{URL: rawURL, Status: resp.StatusCode, Attempts: 1}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, &model.FetchError{URL: rawURL, Attempts: 1, Err: fmt.Errorf("read body: %w", err)}
	}

	page := &Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		Body:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			page.LastModified = &t
		}
	}

	return page, nil
}

// TitleFromURL extracts a human-readable title from the URL path
func TitleFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	if unescaped, err := url.PathUnescape(last); err == nil {
		last = unescaped
	}

	// De-slugify
	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")

	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}

	return last
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
