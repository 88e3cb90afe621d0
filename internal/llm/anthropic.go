package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicBaseURL      = "https://api.anthropic.com"
	anthropicVersion      = "2023-06-01"
	defaultAnthropicModel = "claude-3-5-haiku-20241022"
)

// AnthropicProvider narrates verdicts with Claude models over the Messages API
type AnthropicProvider struct {
	api    *apiClient
	config Config
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Model   string             `json:"model"`
	Content []anthropicContent `json:"content"`
	Usage   anthropicUsage     `json:"usage"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	api := newAPIClient("Anthropic", config, anthropicBaseURL, 30*time.Second)
	api.headers["x-api-key"] = config.APIKey
	api.headers["anthropic-version"] = anthropicVersion
	api.describe = describeAnthropicError

	return &AnthropicProvider{api: api, config: config}, nil
}

func describeAnthropicError(body []byte) string {
	var e struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Type + ": " + e.Error.Message
	}
	return string(body)
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable sends a one-token message as a credentials check
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	model := p.config.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	req := anthropicRequest{
		Model:     model,
		MaxTokens: 1,
		Messages:  []anthropicMessage{{Role: "user", Content: "ping"}},
	}
	return p.api.call(ctx, http.MethodPost, "/v1/messages", req, nil) == nil
}

// Summarize generates a verdict narrative
func (p *AnthropicProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	prompt, model, maxTokens := resolve(req, p.config, defaultAnthropicModel)

	var resp anthropicResponse
	err := p.api.call(ctx, http.MethodPost, "/v1/messages", anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      systemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		Temperature: 0.3,
	}, &resp)
	if err != nil {
		return nil, err
	}

	var text []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text = append(text, block.Text)
		}
	}
	if len(text) == 0 {
		return nil, fmt.Errorf("no text in Anthropic response")
	}

	if resp.Model != "" {
		model = resp.Model
	}
	return newResponse(strings.Join(text, "\n"), model, resp.Usage.InputTokens+resp.Usage.OutputTokens, req, p.config.StrictEvidence)
}
