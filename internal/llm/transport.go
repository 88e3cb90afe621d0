package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/corroborate/internal/fetch"
)

// maxErrorBody bounds how much of a failed response ends up in an error
const maxErrorBody = 512

// APIError is a non-200 answer from a provider endpoint
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Message)
}

// RateLimited reports whether the provider throttled the request
func (e *APIError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// apiClient exchanges JSON with one provider
type apiClient struct {
	provider string
	baseURL  string
	headers  map[string]string
	http     *http.Client

	// describe pulls the provider's message out of an error body
	describe func(body []byte) string
}

func newAPIClient(provider string, config Config, defaultBaseURL string, defaultTimeout time.Duration) *apiClient {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &apiClient{
		provider: provider,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		headers:  map[string]string{},
		http: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{Proxy: fetch.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy)},
		},
		describe: func(body []byte) string { return string(body) },
	}
}

// call sends in (nil for no body) and decodes a 200 response into out (nil to discard)
func (c *apiClient) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(c.describe(data))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		return &APIError{Provider: c.provider, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
