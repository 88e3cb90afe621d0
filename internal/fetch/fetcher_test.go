package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/worker"
)

func newTestFetcher(opts Options) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = "test-agent"
	}
	opts.Timeout = 5 * time.Second
	return NewHTTPFetcher(opts)
}

func TestHTTPFetcher_Success(t *testing.T) {
	lastMod := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("expected identifying user agent, got %q", got)
		}
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Last-Modified", lastMod.Format(http.TimeFormat))
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	page, err := newTestFetcher(Options{}).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if page.Body != "<html><body>OK</body></html>" {
		t.Errorf("Unexpected body: %s", page.Body)
	}
	if page.LastModified == nil || !page.LastModified.Equal(lastMod) {
		t.Errorf("Expected Last-Modified %v, got %v", lastMod, page.LastModified)
	}
}

func TestHTTPFetcher_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusNotFound, false},
		{http.StatusForbidden, false},
		{http.StatusServiceUnavailable, true},
		{http.StatusTooManyRequests, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := newTestFetcher(Options{}).Fetch(context.Background(), server.URL)

			var fe *model.FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("Expected *model.FetchError, got %T (%v)", err, err)
			}
			if fe.Status != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, fe.Status)
			}
			if fe.Retryable() != tt.retryable {
				t.Errorf("Expected retryable=%v for %d", tt.retryable, tt.status)
			}
		})
	}
}

func TestHTTPFetcher_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "0123456789abcdef")
	}))
	defer server.Close()

	page, err := newTestFetcher(Options{MaxBodyBytes: 10}).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(page.Body) != 10 {
		t.Errorf("Expected body truncated to 10 bytes, got %d", len(page.Body))
	}
}

func TestHTTPFetcher_RobotsDisallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
			return
		}
		_, _ = fmt.Fprint(w, "public")
	}))
	defer server.Close()

	f := newTestFetcher(Options{
		Robots:  NewRobotsChecker("test-agent", time.Second),
		Limiter: worker.NewLimiter(0, 1),
	})

	_, err := f.Fetch(context.Background(), server.URL+"/private/page")
	if !errors.Is(err, ErrRobotsDisallowed) {
		t.Fatalf("Expected ErrRobotsDisallowed, got %v", err)
	}
	var fe *model.FetchError
	if errors.As(err, &fe) && fe.Retryable() {
		t.Error("robots denial must not be retryable")
	}

	page, err := f.Fetch(context.Background(), server.URL+"/public")
	if err != nil {
		t.Fatalf("Expected public page to be fetched, got %v", err)
	}
	if page.Body != "public" {
		t.Errorf("Unexpected body: %s", page.Body)
	}
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://en.wikipedia.org/wiki/Boiling_point", "Boiling point"},
		{"https://example.com/articles/water-boils.html", "water boils"},
		{"https://example.com/", "example.com"},
		{"https://example.com/wiki/Caf%C3%A9", "Café"},
	}

	for _, tt := range tests {
		if got := TitleFromURL(tt.url); got != tt.want {
			t.Errorf("TitleFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestNewProxyFunc_NoProxy(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "", "internal.example, .corp")

	req := httptest.NewRequest(http.MethodGet, "http://api.internal.example/x", nil)
	if u, _ := proxy(req); u != nil {
		t.Errorf("expected bypass for no_proxy host, got %v", u)
	}

	req = httptest.NewRequest(http.MethodGet, "http://public.example/x", nil)
	u, err := proxy(req)
	if err != nil || u == nil || u.Host != "proxy.local:3128" {
		t.Errorf("expected configured proxy, got %v %v", u, err)
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	if got := NormalizeUserAgent("Corroborate/0.1 (+https://github.com/ppiankov/corroborate)"); got != "Corroborate" {
		t.Errorf("unexpected product token %q", got)
	}
}
