package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsChecker_CachesPerHost(t *testing.T) {
	var downloads int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&downloads, 1)
		time.Sleep(10 * time.Millisecond)
		_, _ = fmt.Fprint(w, "User-agent: *\nCrawl-delay: 2\nDisallow: /drafts\n")
	}))
	defer server.Close()

	rc := NewRobotsChecker("Corroborate/0.1", time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := rc.CanFetch(context.Background(), server.URL+"/articles/1"); err != nil {
				t.Errorf("CanFetch: %v", err)
			}
		}()
	}
	wg.Wait()

	allowed, delay, err := rc.CanFetch(context.Background(), server.URL+"/drafts/x")
	if err != nil {
		t.Fatalf("CanFetch: %v", err)
	}
	if allowed {
		t.Error("expected /drafts to be disallowed")
	}
	if delay != 2*time.Second {
		t.Errorf("crawl delay = %v, want 2s", delay)
	}
	if n := atomic.LoadInt32(&downloads); n != 1 {
		t.Errorf("robots.txt downloaded %d times, want 1", n)
	}
}

func TestRobotsChecker_ServerErrorDisallows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	rc := NewRobotsChecker("Corroborate/0.1", time.Second)
	allowed, _, err := rc.CanFetch(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("CanFetch: %v", err)
	}
	if allowed {
		t.Error("expected 5xx robots.txt to disallow")
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	rc := NewRobotsChecker("Corroborate/0.1", 200*time.Millisecond)
	allowed, delay, err := rc.CanFetch(context.Background(), url+"/page")
	if err != nil {
		t.Fatalf("CanFetch: %v", err)
	}
	if !allowed || delay != 0 {
		t.Errorf("expected unreachable host to allow without delay, got %v %v", allowed, delay)
	}
}

func TestRobotsChecker_BadURL(t *testing.T) {
	rc := NewRobotsChecker("Corroborate/0.1", time.Second)
	if _, _, err := rc.CanFetch(context.Background(), "not a url"); err == nil {
		t.Error("expected error for URL without host")
	}
}
