package adapters

import (
	"strings"

	"github.com/ppiankov/corroborate/internal/extract"
)

// Adapter is a site-specific extractor
type Adapter interface {
	extract.Extractor

	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given URL/content
	CanHandle(url string, contentType string) bool
}

// Registry dispatches extraction to the first adapter that can handle a page,
// falling back to the generic extractor
type Registry struct {
	adapters []Adapter
	generic  extract.Extractor
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry() *Registry {
	registry := &Registry{
		generic: extract.NewHTMLExtractor(),
	}
	registry.Register(NewWikipediaAdapter())
	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter returns the adapter name that would handle the page ("generic" for the fallback)
func (r *Registry) FindAdapter(url string, contentType string) string {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(url, contentType) {
			return adapter.Name()
		}
	}
	return "generic"
}

// Extract implements extract.Extractor
func (r *Registry) Extract(body, pageURL, contentType string) (*extract.Document, error) {
	if extract.IsMarkup(body, contentType) {
		for _, adapter := range r.adapters {
			if adapter.CanHandle(pageURL, contentType) {
				return adapter.Extract(body, pageURL, contentType)
			}
		}
	}
	return r.generic.Extract(body, pageURL, contentType)
}

func hostContains(rawURL, fragment string) bool {
	return strings.Contains(strings.ToLower(rawURL), fragment)
}
