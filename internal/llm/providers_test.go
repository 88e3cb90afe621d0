package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// providerCase drives one provider against a fake endpoint
type providerCase struct {
	name     string
	path     string
	newFn    func(baseURL string) (Provider, error)
	reply    func(text string) any
	tokens   int
	checkReq func(t *testing.T, r *http.Request)
}

func providerCases() []providerCase {
	return []providerCase{
		{
			name: "anthropic",
			path: "/v1/messages",
			newFn: func(baseURL string) (Provider, error) {
				return NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: baseURL, StrictEvidence: true})
			},
			reply: func(text string) any {
				return anthropicResponse{
					Model:   defaultAnthropicModel,
					Content: []anthropicContent{{Type: "text", Text: text}},
					Usage:   anthropicUsage{InputTokens: 120, OutputTokens: 30},
				}
			},
			tokens: 150,
			checkReq: func(t *testing.T, r *http.Request) {
				if got := r.Header.Get("x-api-key"); got != "test-key" {
					t.Errorf("x-api-key = %q", got)
				}
				if got := r.Header.Get("anthropic-version"); got != anthropicVersion {
					t.Errorf("anthropic-version = %q", got)
				}
				var body anthropicRequest
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("decode request: %v", err)
					return
				}
				if body.System != systemPrompt {
					t.Errorf("system prompt not sent")
				}
				if len(body.Messages) != 1 || !strings.Contains(body.Messages[0].Content, "Water boils") {
					t.Errorf("claim missing from prompt: %+v", body.Messages)
				}
			},
		},
		{
			name: "openai",
			path: "/chat/completions",
			newFn: func(baseURL string) (Provider, error) {
				return NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: baseURL, StrictEvidence: true})
			},
			reply: func(text string) any {
				return map[string]any{
					"id":     "chatcmpl-1",
					"object": "chat.completion",
					"model":  "gpt-4o-mini",
					"choices": []map[string]any{
						{"index": 0, "message": map[string]any{"role": "assistant", "content": text}, "finish_reason": "stop"},
					},
					"usage": map[string]any{"prompt_tokens": 100, "completion_tokens": 40, "total_tokens": 140},
				}
			},
			tokens: 140,
			checkReq: func(t *testing.T, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
					t.Errorf("Authorization = %q", got)
				}
			},
		},
		{
			name: "ollama",
			path: "/api/generate",
			newFn: func(baseURL string) (Provider, error) {
				return NewOllamaProvider(Config{Model: "llama3.1:8b", BaseURL: baseURL, StrictEvidence: true})
			},
			reply: func(text string) any {
				return ollamaResponse{Model: "llama3.1:8b", Response: text, PromptEvalCount: 90, EvalCount: 25}
			},
			tokens: 115,
			checkReq: func(t *testing.T, r *http.Request) {
				var body ollamaRequest
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("decode request: %v", err)
					return
				}
				if body.Stream {
					t.Error("streaming must be off")
				}
				if body.Options.NumPredict != 600 {
					t.Errorf("num_predict = %d, want 600", body.Options.NumPredict)
				}
			},
		},
	}
}

func summarizeRequest() SummarizeRequest {
	v := testVerdict()
	return SummarizeRequest{Verdict: v, EvidenceURLs: EvidenceURLs(v)}
}

func TestProviders_Summarize(t *testing.T) {
	const narrative = "Two sources support the claim (https://example.com/1, https://example.com/2). Evidence is consistent."

	for _, tc := range providerCases() {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tc.path {
					t.Errorf("path = %s, want %s", r.URL.Path, tc.path)
				}
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				tc.checkReq(t, r)
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(tc.reply(narrative))
			}))
			defer server.Close()

			p, err := tc.newFn(server.URL)
			if err != nil {
				t.Fatalf("new provider: %v", err)
			}
			if p.Name() != tc.name {
				t.Errorf("Name() = %q, want %q", p.Name(), tc.name)
			}

			resp, err := p.Summarize(context.Background(), summarizeRequest())
			if err != nil {
				t.Fatalf("Summarize: %v", err)
			}
			if resp.Summary != narrative {
				t.Errorf("summary = %q", resp.Summary)
			}
			if resp.TokensUsed != tc.tokens {
				t.Errorf("tokens = %d, want %d", resp.TokensUsed, tc.tokens)
			}
			if len(resp.CitedURLs) != 2 {
				t.Errorf("cited = %v, want 2 URLs", resp.CitedURLs)
			}
		})
	}
}

func TestProviders_CitationLeak(t *testing.T) {
	for _, tc := range providerCases() {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(tc.reply("See https://rumours.example.net/story for more."))
			}))
			defer server.Close()

			p, err := tc.newFn(server.URL)
			if err != nil {
				t.Fatalf("new provider: %v", err)
			}
			_, err = p.Summarize(context.Background(), summarizeRequest())
			if err == nil || !strings.Contains(err.Error(), "CITATION LEAK") {
				t.Errorf("expected citation leak error, got %v", err)
			}
		})
	}
}

func TestProviders_HTTPErrors(t *testing.T) {
	statuses := []struct {
		status      int
		body        string
		rateLimited bool
	}{
		{http.StatusTooManyRequests, `{"error":{"type":"rate_limit_error","message":"slow down"}}`, true},
		{http.StatusInternalServerError, `{"error":{"type":"server_error","message":"boom"}}`, false},
	}

	for _, tc := range providerCases() {
		for _, st := range statuses {
			t.Run(tc.name+"/"+http.StatusText(st.status), func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(st.status)
					_, _ = w.Write([]byte(st.body))
				}))
				defer server.Close()

				p, err := tc.newFn(server.URL)
				if err != nil {
					t.Fatalf("new provider: %v", err)
				}
				_, err = p.Summarize(context.Background(), summarizeRequest())
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected *APIError, got %T: %v", err, err)
				}
				if apiErr.Status != st.status {
					t.Errorf("status = %d, want %d", apiErr.Status, st.status)
				}
				if apiErr.RateLimited() != st.rateLimited {
					t.Errorf("RateLimited() = %v, want %v", apiErr.RateLimited(), st.rateLimited)
				}
			})
		}
	}
}

func TestProviders_MalformedJSON(t *testing.T) {
	for _, tc := range providerCases() {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"content": [`))
			}))
			defer server.Close()

			p, err := tc.newFn(server.URL)
			if err != nil {
				t.Fatalf("new provider: %v", err)
			}
			if _, err := p.Summarize(context.Background(), summarizeRequest()); err == nil {
				t.Error("expected error for malformed response")
			}
		})
	}
}

func TestProviders_IsAvailable(t *testing.T) {
	availablePaths := map[string]string{
		"anthropic": "/v1/messages",
		"openai":    "/models",
		"ollama":    "/api/tags",
	}

	for _, tc := range providerCases() {
		t.Run(tc.name, func(t *testing.T) {
			up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != availablePaths[tc.name] {
					http.NotFound(w, r)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"object":"list","data":[],"models":[]}`))
			}))
			defer up.Close()

			p, err := tc.newFn(up.URL)
			if err != nil {
				t.Fatalf("new provider: %v", err)
			}
			if !p.IsAvailable(context.Background()) {
				t.Error("expected provider to be available")
			}

			down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer down.Close()

			p, err = tc.newFn(down.URL)
			if err != nil {
				t.Fatalf("new provider: %v", err)
			}
			if p.IsAvailable(context.Background()) {
				t.Error("expected provider to be unavailable on 401")
			}
		})
	}
}

func TestProviders_RequireAPIKey(t *testing.T) {
	if _, err := NewAnthropicProvider(Config{}); err == nil {
		t.Error("anthropic: expected error without API key")
	}
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Error("openai: expected error without API key")
	}
	if _, err := NewOllamaProvider(Config{}); err != nil {
		t.Errorf("ollama needs no key, got %v", err)
	}
}

func TestOllamaProvider_NoModel(t *testing.T) {
	p, err := NewOllamaProvider(Config{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	_, err = p.Summarize(context.Background(), summarizeRequest())
	if !errors.Is(err, errNoModel) {
		t.Errorf("expected errNoModel, got %v", err)
	}
}

func TestOllamaProvider_EstimatesTokens(t *testing.T) {
	const text = "Evidence is lacking for the claim."
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: text})
	}))
	defer server.Close()

	p, err := NewOllamaProvider(Config{Model: "mistral", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	req := SummarizeRequest{Prompt: strings.Repeat("x", 400)}
	resp, err := p.Summarize(context.Background(), req)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if want := (400 + len(text)) / 4; resp.TokensUsed != want {
		t.Errorf("tokens = %d, want %d", resp.TokensUsed, want)
	}
	if resp.Model != "mistral" {
		t.Errorf("model = %q, want mistral", resp.Model)
	}
}

func TestProviders_EmptyNarrative(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: "   "})
	}))
	defer server.Close()

	p, err := NewOllamaProvider(Config{Model: "mistral", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if _, err := p.Summarize(context.Background(), summarizeRequest()); err == nil {
		t.Error("expected error for blank narrative")
	}
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{Provider: "Anthropic", Status: 400, Message: "invalid_request_error: bad"}
	if got := err.Error(); got != "Anthropic API error (400): invalid_request_error: bad" {
		t.Errorf("Error() = %q", got)
	}
	if describeAnthropicError([]byte(`not json`)) != "not json" {
		t.Error("expected raw body for undecodable error")
	}
}
