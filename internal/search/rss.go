package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSProvider searches a news feed endpoint whose URL embeds the query
// (e.g. https://news.google.com/rss/search?q=%s)
type RSSProvider struct {
	template string
	parser   *gofeed.Parser
}

// NewRSSProvider creates a provider over a URL template containing one %s
func NewRSSProvider(template, userAgent string, timeout time.Duration) *RSSProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: timeout}

	return &RSSProvider{
		template: template,
		parser:   parser,
	}
}

func (p *RSSProvider) Name() string { return "rss" }

// Search fetches the feed for query and converts its entries into results
func (p *RSSProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if !strings.Contains(p.template, "%s") {
		return nil, fmt.Errorf("rss url template %q has no %%s placeholder", p.template)
	}
	feedURL := fmt.Sprintf(p.template, url.QueryEscape(query))

	feed, err := p.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", feedURL, err)
	}

	results := make([]Result, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry.Link == "" {
			continue
		}

		var published *time.Time
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			published = entry.UpdatedParsed
		}

		snippet := entry.Description
		if snippet == "" && entry.Content != "" {
			snippet = entry.Content
		}

		source := SourceOf(entry.Link)
		if feed.Title != "" && source == "" {
			source = feed.Title
		}

		results = append(results, Result{
			Title:     strings.TrimSpace(entry.Title),
			URL:       entry.Link,
			Snippet:   truncateText(stripMarkup(snippet), 300),
			Source:    source,
			Published: published,
		})

		if limit > 0 && len(results) >= limit {
			break
		}
	}

	return results, nil
}

func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
