package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

const defaultBurst = 5

// Limiter spaces out requests per host. Every host gets its own token
// bucket, created on first use with the default rate.
type Limiter struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewLimiter creates a limiter allowing requestsPerSecond per host;
// requestsPerSecond <= 0 means no limit
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = defaultBurst
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Limiter{limit: limit, burst: burst, hosts: make(map[string]*rate.Limiter)}
}

// Wait blocks until a request to rawURL's host may proceed
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostKey(rawURL)
	if err != nil {
		return err
	}
	return l.bucket(host).Wait(ctx)
}

// Allow takes a token for rawURL's host if one is available
func (l *Limiter) Allow(rawURL string) bool {
	host, err := hostKey(rawURL)
	if err != nil {
		return false
	}
	return l.bucket(host).Allow()
}

// SetDomainRate overrides the rate for one host, typically from a robots.txt
// crawl-delay. An existing bucket is retuned in place so tokens already
// spent still count.
func (l *Limiter) SetDomainRate(domain string, requestsPerSecond float64, burst int) {
	if burst <= 0 {
		burst = l.burst
	}
	b := l.bucket(strings.ToLower(domain))
	if b.Limit() == rate.Limit(requestsPerSecond) && b.Burst() == burst {
		return
	}
	b.SetLimit(rate.Limit(requestsPerSecond))
	b.SetBurst(burst)
}

func (l *Limiter) bucket(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.hosts[host]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.hosts[host] = b
	}
	return b
}

func hostKey(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("parse url: missing host in %q", rawURL)
	}
	return host, nil
}
