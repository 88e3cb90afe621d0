package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Document is the text extracted from a fetched page
type Document struct {
	Title string   `json:"title,omitempty"`
	Text  string   `json:"text"`
	Links []string `json:"links,omitempty"` // Absolute outbound links to other hosts
}

// Extractor converts raw page content into text
type Extractor interface {
	Extract(body, pageURL, contentType string) (*Document, error)
}

// skipped elements never contribute text
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"nav": true, "footer": true, "header": true, "svg": true, "form": true,
	"head": true, "title": true,
}

// block elements end a line of text
var blocks = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "section": true,
	"article": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "blockquote": true, "pre": true, "table": true, "ul": true, "ol": true,
}

// VisibleText renders the visible text of a node tree, one block per line.
// skip may veto additional subtrees (nil keeps everything not in the default skip list).
func VisibleText(n *html.Node, skip func(*html.Node) bool) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipped[n.Data] || (skip != nil && skip(n)) {
				return
			}
		}

		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blocks[n.Data] {
			buf.WriteString("\n")
		}
	}

	walk(n)
	return CleanWhitespace(buf.String())
}

// CleanWhitespace trims every line, collapses runs of spaces and drops empty lines
func CleanWhitespace(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Title returns the text of the first <title> element
func Title(doc *html.Node) string {
	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return title
}

// OutboundLinks returns deduplicated absolute http(s) links pointing away from pageURL's host
func OutboundLinks(n *html.Node, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				resolved := ResolveURL(base, strings.TrimSpace(attr.Val))
				if resolved == "" || seen[resolved] {
					continue
				}
				parsed, err := url.Parse(resolved)
				if err != nil || strings.EqualFold(parsed.Hostname(), base.Hostname()) {
					continue
				}
				seen[resolved] = true
				links = append(links, resolved)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return links
}

// ResolveURL resolves href against base, keeping only http(s) targets without fragments
func ResolveURL(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "data:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""

	return resolved.String()
}

// IsMarkup reports whether the content should be parsed as HTML
func IsMarkup(body, contentType string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "html") || strings.Contains(ct, "xml") {
		return true
	}
	if ct != "" && !strings.HasPrefix(ct, "application/octet-stream") {
		return false
	}
	head := strings.ToLower(strings.TrimSpace(body))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") || strings.Contains(head, "<html") || strings.Contains(head, "<body")
}
