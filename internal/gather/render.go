package gather

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/corroborate/internal/model"
)

// renderers maps each result format to its renderer
var renderers = map[model.ResultFormat]func(w io.Writer, snap *Snapshot) error{
	model.FormatJSON:     renderJSON,
	model.FormatMarkdown: renderMarkdown,
	model.FormatHTML:     renderHTML,
	model.FormatText:     renderText,
}

const degradedNotice = "Degraded mode: no search provider returned results; candidates are synthetic."

// Render writes snap to w in the given format
func Render(w io.Writer, snap *Snapshot, format model.ResultFormat) error {
	render, ok := renderers[format]
	if !ok {
		return fmt.Errorf("%w: unknown result format %q", model.ErrConfiguration, format)
	}
	return render(w, snap)
}

func renderJSON(w io.Writer, snap *Snapshot) error {
	items := snap.Items
	if items == nil {
		items = []model.EvidenceItem{}
	}
	out := struct {
		Query    string               `json:"query"`
		Provider string               `json:"provider,omitempty"`
		Degraded bool                 `json:"degraded"`
		Stats    model.RunStats       `json:"stats"`
		Results  []model.EvidenceItem `json:"results"`
	}{
		Query:    snap.Config.Query,
		Provider: snap.Stats.Provider,
		Degraded: snap.Stats.Degraded,
		Stats:    snap.Stats,
		Results:  items,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}

func renderMarkdown(w io.Writer, snap *Snapshot) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Research Results: %s\n\n", snap.Config.Query)
	if snap.Stats.Degraded {
		fmt.Fprintf(&b, "> **%s**\n\n", degradedNotice)
	}
	fmt.Fprintf(&b, "**Total Results:** %d\n", len(snap.Items))
	fmt.Fprintf(&b, "**Average Relevance:** %.2f\n\n", snap.Stats.AverageRelevance)

	for _, item := range snap.Items {
		fmt.Fprintf(&b, "## %s\n\n", item.Title)
		fmt.Fprintf(&b, "**URL:** [%s](%s)\n", item.URL, item.URL)
		fmt.Fprintf(&b, "**Relevance:** %.2f\n\n", item.Relevance)
		if item.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", item.Summary)
		}
		b.WriteString("---\n\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderHTML(w io.Writer, snap *Snapshot) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>Research Results: %s</h1>\n", html.EscapeString(snap.Config.Query))
	if snap.Stats.Degraded {
		fmt.Fprintf(&b, "<p class=\"degraded\"><strong>%s</strong></p>\n", degradedNotice)
	}
	for _, item := range snap.Items {
		b.WriteString("<div class=\"result\">\n")
		fmt.Fprintf(&b, "<h2>%s</h2>\n", html.EscapeString(item.Title))
		fmt.Fprintf(&b, "<p><strong>Relevance:</strong> %.2f</p>\n", item.Relevance)
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(item.Summary))
		fmt.Fprintf(&b, "<a href=\"%s\">Read more</a>\n", html.EscapeString(item.URL))
		b.WriteString("</div>\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderText(w io.Writer, snap *Snapshot) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Research Results: %s\n\n", snap.Config.Query)
	if snap.Stats.Degraded {
		fmt.Fprintf(&b, "%s\n\n", degradedNotice)
	}
	for _, item := range snap.Items {
		fmt.Fprintf(&b, "%s\n", item.Title)
		fmt.Fprintf(&b, "URL: %s\n", item.URL)
		fmt.Fprintf(&b, "Relevance: %.2f\n", item.Relevance)
		fmt.Fprintf(&b, "%s\n\n", item.Summary)
		b.WriteString(strings.Repeat("-", 80) + "\n\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
