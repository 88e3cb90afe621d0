package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

const (
	robotsTTL = 6 * time.Hour
	// an unreachable robots.txt counts as allow-all, retried sooner
	robotsRetryTTL = 10 * time.Minute
)

// RobotsChecker answers robots.txt questions per host. Rules are cached,
// and concurrent lookups for one host share a single download.
type RobotsChecker struct {
	client    *http.Client
	userAgent string
	agent     string

	rules  *gocache.Cache
	flight singleflight.Group
}

// NewRobotsChecker creates a checker that identifies itself as userAgent
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		agent:     NormalizeUserAgent(userAgent),
		rules:     gocache.New(robotsTTL, time.Hour),
	}
}

// CanFetch reports whether rawURL may be fetched and the crawl delay the
// host asks for
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}
	if u.Host == "" {
		return false, 0, fmt.Errorf("parse URL: missing host in %q", rawURL)
	}

	rules := r.lookup(ctx, u.Scheme, u.Host)

	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	var delay time.Duration
	if group := rules.FindGroup(r.agent); group != nil {
		delay = group.CrawlDelay
	}
	return rules.TestAgent(target, r.agent), delay, nil
}

func (r *RobotsChecker) lookup(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	key := scheme + "://" + host
	if v, ok := r.rules.Get(key); ok {
		return v.(*robotstxt.RobotsData)
	}

	v, _, _ := r.flight.Do(key, func() (any, error) {
		rules, err := r.download(ctx, key+"/robots.txt")
		if err != nil {
			rules, _ = robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)
			r.rules.Set(key, rules, robotsRetryTTL)
			return rules, nil
		}
		r.rules.Set(key, rules, gocache.DefaultExpiration)
		return rules, nil
	})
	return v.(*robotstxt.RobotsData)
}

func (r *RobotsChecker) download(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// 4xx means allow-all, 5xx disallow-all
	rules, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return rules, nil
}

// NormalizeUserAgent returns the product token of a user agent string,
// e.g. "Corroborate" for "Corroborate/0.1 (+https://...)"
func NormalizeUserAgent(ua string) string {
	product, _, _ := strings.Cut(strings.TrimSpace(ua), " ")
	product, _, _ = strings.Cut(product, "/")
	if product == "" {
		return ua
	}
	return product
}
