package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLExtractor is the generic markup-to-text extractor. It prefers the
// <article> or <main> element when present and falls back to <body>.
type HTMLExtractor struct{}

// NewHTMLExtractor creates a new generic extractor
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract parses markup and returns its visible text; non-markup content is passed through
func (e *HTMLExtractor) Extract(body, pageURL, contentType string) (*Document, error) {
	if !IsMarkup(body, contentType) {
		return &Document{Text: CleanWhitespace(body)}, nil
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	root := FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && (n.Data == "article" || n.Data == "main")
	})
	if root == nil {
		root = doc
	}

	return &Document{
		Title: Title(doc),
		Text:  VisibleText(root, nil),
		Links: OutboundLinks(root, pageURL),
	}, nil
}

// FindFirst finds the first node matching a predicate in document order
func FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	if predicate(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindFirst(c, predicate); found != nil {
			return found
		}
	}
	return nil
}

// HasClass checks if a node has a specific CSS class
func HasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(Attr(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

// Attr gets an attribute value from a node
func Attr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
