package extract

import (
	"reflect"
	"strings"
	"testing"
)

func TestHTMLExtractor_VisibleText(t *testing.T) {
	body := `<html><head><title>Boiling point</title><style>p{}</style></head>
<body>
<header>Site header</header>
<nav><a href="/">Home</a></nav>
<p>Water boils at <b>100 degrees</b> Celsius.</p>
<script>var x = 1;</script>
<p>At altitude   it boils lower.</p>
<footer>Copyright</footer>
</body></html>`

	doc, err := NewHTMLExtractor().Extract(body, "https://example.com/water", "text/html")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if doc.Title != "Boiling point" {
		t.Errorf("expected title, got %q", doc.Title)
	}

	want := "Water boils at 100 degrees Celsius.\nAt altitude it boils lower."
	if doc.Text != want {
		t.Errorf("unexpected text:\n%q\nwant\n%q", doc.Text, want)
	}

	for _, noise := range []string{"Site header", "Home", "var x", "Copyright"} {
		if strings.Contains(doc.Text, noise) {
			t.Errorf("text should not contain %q", noise)
		}
	}
}

func TestHTMLExtractor_PrefersArticle(t *testing.T) {
	body := `<html><body><div>Sidebar junk</div><article><p>Main story text.</p></article></body></html>`

	doc, err := NewHTMLExtractor().Extract(body, "https://example.com/", "text/html; charset=utf-8")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if doc.Text != "Main story text." {
		t.Errorf("expected article text only, got %q", doc.Text)
	}
}

func TestHTMLExtractor_PlainTextPassthrough(t *testing.T) {
	doc, err := NewHTMLExtractor().Extract("  line one  \n\n line   two ", "https://example.com/a.txt", "text/plain")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if doc.Text != "line one\nline two" {
		t.Errorf("unexpected text %q", doc.Text)
	}
}

func TestOutboundLinks(t *testing.T) {
	body := `<html><body>
<a href="/local">local</a>
<a href="https://www.nature.com/articles/1#sec">paper</a>
<a href="https://www.nature.com/articles/1">paper again</a>
<a href="mailto:x@example.com">mail</a>
<a href="#top">top</a>
<a href="https://www.who.int/report">report</a>
</body></html>`

	doc, err := NewHTMLExtractor().Extract(body, "https://example.com/page", "text/html")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := []string{"https://www.nature.com/articles/1", "https://www.who.int/report"}
	if !reflect.DeepEqual(doc.Links, want) {
		t.Errorf("links = %v, want %v", doc.Links, want)
	}
}

func TestIsMarkup(t *testing.T) {
	tests := []struct {
		body, ct string
		want     bool
	}{
		{"<p>x</p>", "text/html", true},
		{"<!DOCTYPE html><html>", "", true},
		{"plain words", "", false},
		{"<html>", "text/plain", false},
		{"<feed/>", "application/atom+xml", true},
	}
	for _, tt := range tests {
		if got := IsMarkup(tt.body, tt.ct); got != tt.want {
			t.Errorf("IsMarkup(%q, %q) = %v, want %v", tt.body, tt.ct, got, tt.want)
		}
	}
}
