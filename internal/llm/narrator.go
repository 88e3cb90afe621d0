package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/corroborate/internal/model"
)

// Narrator attaches an LLM explanation to a finished verdict.
// The narrative never changes the verdict's confidence or status.
type Narrator struct {
	provider Provider
	config   Config
}

// NewNarrator creates a narrator; with no provider configured it is disabled
func NewNarrator(config Config) (*Narrator, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	return &Narrator{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured
func (n *Narrator) IsEnabled() bool {
	return n.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (n *Narrator) ProviderName() string {
	if n.provider == nil {
		return ""
	}
	return n.provider.Name()
}

// Narrate explains v. Provider failures degrade to a narrative carrying
// warnings rather than an error; a disabled narrator returns nil.
func (n *Narrator) Narrate(ctx context.Context, v *model.Verdict) (*model.LLMNarrative, error) {
	if n.provider == nil {
		return nil, nil
	}

	out := &model.LLMNarrative{
		Provider: n.provider.Name(),
		Model:    n.config.Model,
	}

	if !n.provider.IsAvailable(ctx) {
		out.Warnings = append(out.Warnings, fmt.Sprintf("LLM provider %s is not available", n.provider.Name()))
		return out, nil
	}

	urls := EvidenceURLs(v)
	resp, err := n.provider.Summarize(ctx, SummarizeRequest{
		Verdict:      v,
		EvidenceURLs: urls,
		Model:        n.config.Model,
		MaxTokens:    n.config.MaxTokens,
	})
	if err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("Narrative generation failed: %v", err))
		return out, nil
	}

	out.Text = resp.Summary
	if resp.Model != "" {
		out.Model = resp.Model
	}
	if resp.TokensUsed > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	}
	if len(resp.CitedURLs) > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("Verified %d citations against %d evidence URLs", len(resp.CitedURLs), len(urls)))
	}
	return out, nil
}

// RenderMarkdown renders a narrative as a separate, clearly labeled section
func RenderMarkdown(n *model.LLMNarrative) string {
	if n == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Narrative\n\n")
	b.WriteString("> GENERATED CONTENT. The verdict, confidence and status were determined independently of this text.\n\n")
	fmt.Fprintf(&b, "- **Provider**: %s\n", n.Provider)
	if n.Model != "" {
		fmt.Fprintf(&b, "- **Model**: %s\n", n.Model)
	}
	b.WriteString("- **Strict Evidence Mode**: true\n\n")

	if n.Text == "" {
		b.WriteString("_No narrative generated._\n")
	} else {
		b.WriteString(n.Text)
		b.WriteString("\n")
	}

	if len(n.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range n.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
