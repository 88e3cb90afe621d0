package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const ollamaBaseURL = "http://localhost:11434"

// OllamaProvider narrates verdicts with a local Ollama model
type OllamaProvider struct {
	api    *apiClient
	config Config
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

// NewOllamaProvider creates a new Ollama provider; local models are slow, so the default timeout is 60s
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	api := newAPIClient("Ollama", config, ollamaBaseURL, 60*time.Second)
	api.describe = func(body []byte) string {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
			return e.Error
		}
		return string(body)
	}
	return &OllamaProvider{api: api, config: config}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks that the server answers its model listing
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	return p.api.call(ctx, http.MethodGet, "/api/tags", nil, nil) == nil
}

// Summarize generates a verdict narrative. Ollama has no default model.
func (p *OllamaProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	prompt, model, maxTokens := resolve(req, p.config, "")
	if model == "" {
		return nil, fmt.Errorf("%w: ollama model must be specified (e.g. llama3.1:8b, mistral)", errNoModel)
	}

	var resp ollamaResponse
	err := p.api.call(ctx, http.MethodPost, "/api/generate", ollamaRequest{
		Model:   model,
		Prompt:  prompt,
		System:  systemPrompt,
		Options: ollamaOptions{Temperature: 0.3, NumPredict: maxTokens},
	}, &resp)
	if err != nil {
		return nil, err
	}

	// Some models report no counts; estimate 4 characters per token
	tokens := resp.PromptEvalCount + resp.EvalCount
	if tokens == 0 {
		tokens = (len(prompt) + len(resp.Response)) / 4
	}
	if resp.Model != "" {
		model = resp.Model
	}
	return newResponse(resp.Response, model, tokens, req, p.config.StrictEvidence)
}
