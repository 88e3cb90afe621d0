package adapters

import (
	"strings"

	"github.com/ppiankov/corroborate/internal/extract"
	"golang.org/x/net/html"
)

// wikipediaNoise are classes of article chrome that never carry prose
var wikipediaNoise = []string{
	"reference", "reflist", "references", "navbox", "mw-editsection", "infobox",
	"hatnote", "thumb", "metadata", "mw-references-wrap", "sidebar", "toc",
}

// WikipediaAdapter extracts article prose from Wikipedia pages
type WikipediaAdapter struct{}

// NewWikipediaAdapter creates a new Wikipedia adapter
func NewWikipediaAdapter() *WikipediaAdapter {
	return &WikipediaAdapter{}
}

// Name returns the adapter name
func (a *WikipediaAdapter) Name() string {
	return "wikipedia"
}

// CanHandle checks if this is a Wikipedia URL
func (a *WikipediaAdapter) CanHandle(rawURL string, contentType string) bool {
	return hostContains(rawURL, "wikipedia.org")
}

// Extract returns the text of the main content area without citations and navigation.
// Outbound links come from the citation list, which is where external evidence lives.
func (a *WikipediaAdapter) Extract(body, pageURL, contentType string) (*extract.Document, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	content := extract.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" &&
			(extract.HasClass(n, "mw-parser-output") || extract.Attr(n, "id") == "mw-content-text")
	})
	if content == nil {
		content = doc
	}

	text := extract.VisibleText(content, isWikipediaNoise)

	return &extract.Document{
		Title: strings.TrimSuffix(extract.Title(doc), " - Wikipedia"),
		Text:  text,
		Links: externalCitationLinks(content, pageURL),
	}, nil
}

func isWikipediaNoise(n *html.Node) bool {
	if n.Data == "sup" || n.Data == "style" {
		return true
	}
	for _, class := range wikipediaNoise {
		if extract.HasClass(n, class) {
			return true
		}
	}
	return false
}

func externalCitationLinks(content *html.Node, pageURL string) []string {
	var links []string
	for _, link := range extract.OutboundLinks(content, pageURL) {
		if strings.Contains(link, "wikipedia.org") || strings.Contains(link, "wikimedia.org") ||
			strings.Contains(link, "wikidata.org") {
			continue
		}
		links = append(links, link)
	}
	return links
}
