package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/corroborate/internal/model"
	"golang.org/x/net/html"
)

// WikipediaProvider searches Wikipedia through the MediaWiki list=search API
type WikipediaProvider struct {
	endpoint   string
	articleURL string
	userAgent  string
	client     *http.Client
}

// NewWikipediaProvider creates a provider for a MediaWiki api.php endpoint
func NewWikipediaProvider(endpoint, userAgent string, timeout time.Duration) *WikipediaProvider {
	if endpoint == "" {
		endpoint = "https://en.wikipedia.org/w/api.php"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	articleURL := "https://en.wikipedia.org/wiki/"
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		articleURL = fmt.Sprintf("%s://%s/wiki/", parsed.Scheme, parsed.Host)
	}

	return &WikipediaProvider{
		endpoint:   endpoint,
		articleURL: articleURL,
		userAgent:  userAgent,
		client:     &http.Client{Timeout: timeout},
	}
}

func (p *WikipediaProvider) Name() string { return "wikipedia" }

type wikipediaSearchResponse struct {
	Query struct {
		Search []struct {
			Title     string `json:"title"`
			PageID    int    `json:"pageid"`
			Snippet   string `json:"snippet"`
			Timestamp string `json:"timestamp"`
		} `json:"search"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Search queries the API for up to limit articles (the API caps at 50)
func (p *WikipediaProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", strconv.Itoa(limit))
	params.Set("srprop", "snippet|timestamp")
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// Wikipedia API requires an identifying User-Agent
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &model.FetchError{URL: p.endpoint, Attempts: 1, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.FetchError{URL: p.endpoint, Status: resp.StatusCode, Attempts: 1}
	}

	var apiResp wikipediaSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode Wikipedia API response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("wikipedia API error %s: %s", apiResp.Error.Code, apiResp.Error.Info)
	}

	results := make([]Result, 0, len(apiResp.Query.Search))
	for _, hit := range apiResp.Query.Search {
		articleURL := p.articleURL + url.PathEscape(strings.ReplaceAll(hit.Title, " ", "_"))
		r := Result{
			Title:   hit.Title,
			URL:     articleURL,
			Snippet: stripMarkup(hit.Snippet),
			Source:  SourceOf(articleURL),
		}
		if t, err := time.Parse(time.RFC3339, hit.Timestamp); err == nil {
			r.Published = &t
		}
		results = append(results, r)
	}

	return results, nil
}

// stripMarkup returns the text content of an HTML fragment
func stripMarkup(fragment string) string {
	if !strings.Contains(fragment, "<") && !strings.Contains(fragment, "&") {
		return strings.TrimSpace(fragment)
	}

	var buf strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(buf.String()), " ")
		case html.TextToken:
			buf.Write(tokenizer.Text())
		}
	}
}
