package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/ppiankov/corroborate/internal/model"
)

const systemPrompt = "You are a helpful assistant that explains claim verification verdicts with strict adherence to evidence constraints."

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a narrative of the verdict with strict evidence mode
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Verdict is the verification result to explain
	Verdict *model.Verdict

	// EvidenceURLs is the STRICT allowlist of URLs the LLM can cite
	EvidenceURLs []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	Summary    string
	CitedURLs  []string // URLs the LLM actually cited
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	APIKey  string
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictEvidence enforces URL allowlist (should always be true)
	StrictEvidence bool

	MaxTokens int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // Disabled by default
		Timeout:        30,
		StrictEvidence: true,
		MaxTokens:      600,
	}
}

// EvidenceURLs lists the URLs of every assessed source in the verdict
func EvidenceURLs(v *model.Verdict) []string {
	var urls []string
	seen := make(map[string]bool)
	for _, group := range [][]model.SourceAssessment{v.Evidence.Supporting, v.Evidence.Conflicting, v.Evidence.Neutral} {
		for _, s := range group {
			if s.URL != "" && !seen[s.URL] {
				seen[s.URL] = true
				urls = append(urls, s.URL)
			}
		}
	}
	return urls
}

// BuildPrompt constructs the default prompt for a verdict narrative with strict evidence mode
func BuildPrompt(v *model.Verdict, evidenceURLs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are explaining a claim verification verdict. The verdict was computed from source credibility, semantic overlap and source coverage. Do not re-judge the claim.

CRITICAL RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. DO NOT infer, speculate, or cite external sources beyond this list.
3. If evidence is insufficient or conflicting, state that explicitly.
4. Describe what the sources say and how strong they are. Use phrases like:
   - "N sources support the claim..."
   - "Evidence is lacking for..."
   - "One source contradicts..."
5. Never contradict the computed status or confidence.

Verdict:
- Claim: %s
- Status: %s
- Confidence: %.2f
- Supporting sources: %d
- Conflicting sources: %d
- Neutral sources: %d
- Sources analysed: %d
`, joinURLs(evidenceURLs), v.Claim, v.Status, v.Confidence,
		v.Evidence.Factors.SupportingCount, v.Evidence.Factors.ConflictingCount, v.Evidence.Factors.NeutralCount,
		v.SourcesAnalyzed)

	if v.Degraded {
		b.WriteString("- WARNING: evidence is synthetic; no search provider returned results\n")
	}

	b.WriteString("\nKey Signals:\n")
	for i, signal := range v.Signals {
		if i >= 4 {
			break
		}
		fmt.Fprintf(&b, "- %s: %s\n", signal.Type, signal.Description)
	}

	b.WriteString("\nProvide a 3-4 sentence explanation of the verdict based only on the listed evidence.")
	return b.String()
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No evidence URLs available)"
	}
	var b strings.Builder
	for i, u := range urls {
		if i >= 20 {
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", u)
	}
	return b.String()
}

// resolve fills the prompt, model and token budget of a request from config
func resolve(req SummarizeRequest, config Config, defaultModel string) (prompt, model string, maxTokens int) {
	prompt = req.Prompt
	if prompt == "" && req.Verdict != nil {
		prompt = BuildPrompt(req.Verdict, req.EvidenceURLs)
	}

	model = req.Model
	if model == "" {
		model = config.Model
	}
	if model == "" {
		model = defaultModel
	}

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 600
	}
	return prompt, model, maxTokens
}

var urlPattern = regexp.MustCompile(`https?://[^\s\)]+`)

// extractURLs extracts all URLs from text
func extractURLs(text string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, u := range urlPattern.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;:!?")
		if !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}
	return unique
}

// checkCitations rejects any cited URL outside the allowlist
func checkCitations(cited, allowed []string) error {
	for _, u := range cited {
		if !slices.Contains(allowed, u) {
			return fmt.Errorf("CITATION LEAK: LLM cited disallowed URL: %s", u)
		}
	}
	return nil
}

// errNoModel marks a provider call without a model to run
var errNoModel = errors.New("no model configured")

// newResponse trims the generated text and, in strict mode, enforces the allowlist
func newResponse(text, model string, tokens int, req SummarizeRequest, strict bool) (*SummarizeResponse, error) {
	summary := strings.TrimSpace(text)
	if summary == "" {
		return nil, fmt.Errorf("empty narrative from %s", model)
	}
	cited := extractURLs(summary)
	if strict {
		if err := checkCitations(cited, req.EvidenceURLs); err != nil {
			return nil, err
		}
	}
	return &SummarizeResponse{
		Summary:    summary,
		CitedURLs:  cited,
		Model:      model,
		TokensUsed: tokens,
	}, nil
}
