package gather

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/corroborate/internal/model"
)

// BuildKind selects a ContentBuilder output
type BuildKind string

const (
	BuildArticle      BuildKind = "article"
	BuildReport       BuildKind = "report"
	BuildSummary      BuildKind = "summary"
	BuildPresentation BuildKind = "presentation"
)

// ContentBuilder assembles markdown documents from evidence items
type ContentBuilder struct {
	items []model.EvidenceItem
	now   func() time.Time
}

// NewContentBuilder creates a builder over items
func NewContentBuilder(items []model.EvidenceItem) *ContentBuilder {
	return &ContentBuilder{items: items, now: time.Now}
}

// Build dispatches to the builder for kind
func (b *ContentBuilder) Build(kind BuildKind) (string, error) {
	builders := map[BuildKind]func() string{
		BuildArticle:      b.Article,
		BuildReport:       b.Report,
		BuildSummary:      b.Summary,
		BuildPresentation: b.Presentation,
	}
	build, ok := builders[kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown content kind %q", model.ErrConfiguration, kind)
	}
	return build(), nil
}

// Article presents the first five items as key findings
func (b *ContentBuilder) Article() string {
	if len(b.items) == 0 {
		return "No research results available to build content."
	}

	var sb strings.Builder
	sb.WriteString("# Research Article\n\n")
	sb.WriteString("## Introduction\n\n")
	sb.WriteString("This article synthesizes findings from multiple research sources.\n\n")
	sb.WriteString("## Key Findings\n\n")
	for i, item := range head(b.items, 5) {
		fmt.Fprintf(&sb, "### Finding %d: %s\n\n", i+1, item.Title)
		fmt.Fprintf(&sb, "%s\n\n", item.Summary)
		fmt.Fprintf(&sb, "*Source: [%s](%s)*\n\n", item.URL, item.URL)
	}
	sb.WriteString("## Conclusion\n\n")
	sb.WriteString("The research reveals important insights across multiple sources.\n\n")
	return sb.String()
}

// Report lists every item after an executive summary of the top three
func (b *ContentBuilder) Report() string {
	var sb strings.Builder
	sb.WriteString("# Research Report\n\n")
	fmt.Fprintf(&sb, "**Date:** %s\n", b.now().Format("2006-01-02"))
	fmt.Fprintf(&sb, "**Total Sources:** %d\n\n", len(b.items))

	sb.WriteString("## Executive Summary\n\n")
	var leads []string
	for _, item := range head(b.items, 3) {
		leads = append(leads, firstSentence(item.Summary))
	}
	fmt.Fprintf(&sb, "%s.\n\n", strings.Join(leads, ". "))

	sb.WriteString("## Detailed Findings\n\n")
	for _, item := range b.items {
		fmt.Fprintf(&sb, "### %s\n\n", item.Title)
		fmt.Fprintf(&sb, "**Relevance Score:** %.2f\n\n", item.Relevance)
		fmt.Fprintf(&sb, "%s\n\n", item.Summary)
	}
	return sb.String()
}

// Summary reports the average relevance and one key point per top item
func (b *ContentBuilder) Summary() string {
	var sb strings.Builder
	sb.WriteString("# Executive Summary\n\n")
	if len(b.items) == 0 {
		return sb.String()
	}

	total := 0.0
	for _, item := range b.items {
		total += item.Relevance
	}
	fmt.Fprintf(&sb, "Analyzed %d sources with average relevance of %.2f.\n\n", len(b.items), total/float64(len(b.items)))
	sb.WriteString("## Key Points\n\n")
	for _, item := range head(b.items, 5) {
		fmt.Fprintf(&sb, "- %s: %s.\n", item.Title, firstSentence(item.Summary))
	}
	return sb.String()
}

// Presentation renders one slide per top item
func (b *ContentBuilder) Presentation() string {
	var sb strings.Builder
	sb.WriteString("# Research Presentation\n\n")
	sb.WriteString("---\n\n## Overview\n\n")
	fmt.Fprintf(&sb, "- Total Sources: %d\n", len(b.items))
	sb.WriteString("- Research Scope: Comprehensive analysis\n\n")
	for i, item := range head(b.items, 5) {
		fmt.Fprintf(&sb, "---\n\n## Slide %d: %s\n\n", i+1, item.Title)
		fmt.Fprintf(&sb, "%s\n\n", item.Summary)
	}
	sb.WriteString("---\n\n## Thank You\n\n")
	sb.WriteString("Questions?\n\n")
	return sb.String()
}

func head(items []model.EvidenceItem, n int) []model.EvidenceItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func firstSentence(s string) string {
	if i := strings.Index(s, "."); i >= 0 {
		return s[:i]
	}
	return s
}
