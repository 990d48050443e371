// Package web provides search provider backends and page summarization
// for the web_search capability.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/anthropics/capstan/internal/domain"
)

// SearchProvider returns ranked results for a query.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]domain.WebResult, error)
}

// Summarizer condenses fetched page content into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, pageURL, content string) (string, error)
}

// HTTPProvider queries a JSON search API over HTTP.
type HTTPProvider struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewHTTPProvider creates a provider for the given endpoint.
func NewHTTPProvider(endpoint, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

// Search issues the query and parses the response.
func (p *HTTPProvider) Search(ctx context.Context, query string, limit int) ([]domain.WebResult, error) {
	u := fmt.Sprintf("%s?q=%s&limit=%d", p.Endpoint, url.QueryEscape(query), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, domain.WrapRuntimeError(domain.ErrSearchBackend.Code, "build request", err)
	}
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, domain.WrapRuntimeError(domain.ErrSearchBackend.Code, "search request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapRuntimeError(domain.ErrSearchBackend.Code, "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewRuntimeError(
			domain.ErrSearchBackend.Code,
			fmt.Sprintf("search backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		)
	}

	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, domain.WrapRuntimeError(domain.ErrSearchBackend.Code, "parse response", err)
	}

	results := make([]domain.WebResult, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, domain.WebResult{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	return results, nil
}

// ExcerptSummarizer summarizes a page by taking the first MaxChars of its
// text with collapsed whitespace. It needs no model backend.
type ExcerptSummarizer struct {
	MaxChars int
}

// Summarize implements Summarizer.
func (s *ExcerptSummarizer) Summarize(_ context.Context, _ string, content string) (string, error) {
	max := s.MaxChars
	if max <= 0 {
		max = 512
	}
	text := strings.Join(strings.Fields(content), " ")
	if len(text) > max {
		text = text[:max] + "…"
	}
	return text, nil
}

// Service runs searches and attaches summaries of each result's page.
// Fetched pages are kept in an LRU cache keyed by URL.
type Service struct {
	Provider   SearchProvider
	Summarizer Summarizer
	Client     *http.Client

	pages *lru.Cache[string, string]
}

// NewService creates a Service with a page cache of the given size.
func NewService(provider SearchProvider, summarizer Summarizer, cacheSize int) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	pages, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create page cache: %w", err)
	}
	return &Service{
		Provider:   provider,
		Summarizer: summarizer,
		Client:     &http.Client{Timeout: 15 * time.Second},
		pages:      pages,
	}, nil
}

// Search queries the provider and fills each result's Summary from its
// fetched page. Fetch or summarize failures leave the Summary empty
// rather than failing the whole search.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]domain.WebResult, error) {
	results, err := s.Provider.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	for i := range results {
		page, err := s.fetchPage(ctx, results[i].URL)
		if err != nil {
			continue
		}
		summary, err := s.Summarizer.Summarize(ctx, results[i].URL, page)
		if err != nil {
			continue
		}
		results[i].Summary = summary
	}
	return results, nil
}

// fetchPage returns the page body, serving repeats from the cache.
func (s *Service) fetchPage(ctx context.Context, pageURL string) (string, error) {
	if cached, ok := s.pages.Get(pageURL); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	page := string(body)
	s.pages.Add(pageURL, page)
	return page, nil
}
