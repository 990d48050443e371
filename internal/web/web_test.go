package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/anthropics/capstan/internal/domain"
)

type fakeProvider struct {
	results []domain.WebResult
	err     error
}

func (f *fakeProvider) Search(_ context.Context, _ string, _ int) ([]domain.WebResult, error) {
	return f.results, f.err
}

func TestHTTPProvider_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "go generics" {
			t.Errorf("got query %q, want %q", got, "go generics")
		}
		fmt.Fprint(w, `{"results":[{"title":"Generics","url":"https://example.com/g","snippet":"type params"}]}`)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "test-key")
	results, err := p.Search(context.Background(), "go generics", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Title != "Generics" || results[0].URL != "https://example.com/g" {
		t.Fatalf("unexpected result %+v", results[0])
	}
}

func TestHTTPProvider_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "")
	_, err := p.Search(context.Background(), "anything", 5)
	if err == nil {
		t.Fatal("expected backend error")
	}
	rerr, ok := err.(*domain.RuntimeError)
	if !ok || rerr.Code != domain.ErrSearchBackend.Code {
		t.Fatalf("got %v, want SearchBackend", err)
	}
}

func TestExcerptSummarizer_Truncates(t *testing.T) {
	s := &ExcerptSummarizer{MaxChars: 10}
	got, err := s.Summarize(context.Background(), "u", "one  two\n\nthree four five")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "one two th…" {
		t.Fatalf("got %q", got)
	}
}

func TestService_AttachesSummaries(t *testing.T) {
	var fetches int32
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&fetches, 1)
		fmt.Fprint(w, "body text of the page")
	}))
	defer page.Close()

	provider := &fakeProvider{results: []domain.WebResult{
		{Title: "A", URL: page.URL, Snippet: "s"},
		{Title: "B", URL: page.URL, Snippet: "s"},
	}}

	svc, err := NewService(provider, &ExcerptSummarizer{MaxChars: 100}, 8)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	results, err := svc.Search(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		if r.Summary != "body text of the page" {
			t.Fatalf("unexpected summary %q", r.Summary)
		}
	}
	// Both results share one URL; the second hit comes from the cache.
	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Fatalf("got %d fetches, want 1", n)
	}
}

func TestService_FetchFailureLeavesSummaryEmpty(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer dead.Close()

	provider := &fakeProvider{results: []domain.WebResult{{Title: "A", URL: dead.URL}}}
	svc, err := NewService(provider, &ExcerptSummarizer{}, 8)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	results, err := svc.Search(context.Background(), "q", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results[0].Summary != "" {
		t.Fatalf("got summary %q, want empty", results[0].Summary)
	}
}
