package parser

import (
	"context"
	"fmt"
	"testing"

	"NewsreelAgent/internal/config"
	"NewsreelAgent/internal/domain"
	"NewsreelAgent/internal/scanner"
)

// scriptedScanner serves canned per-site results so source iteration can be
// exercised without any HTTP.
type scriptedScanner struct {
	results map[string][]domain.Article
	errs    map[string]error
}

func (s *scriptedScanner) Name() string { return scanner.DefaultStrategy }

func (s *scriptedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if err, ok := s.errs[req.SiteName]; ok {
		return nil, err
	}
	return s.results[req.SiteName], nil
}

func siteArticles(site string, n int) []domain.Article {
	out := make([]domain.Article, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Article{
			Title:  fmt.Sprintf("%s article %d", site, i),
			URL:    fmt.Sprintf("https://%s.example.org/%d", site, i),
			Source: site,
		})
	}
	return out
}

func newSource(t *testing.T, sites []config.SourceConfig, sc scanner.Scanner) *StrategySource {
	t.Helper()

	registry := scanner.NewRegistry()
	registry.Register(sc)
	return NewStrategySource(registry, config.ScraperConfig{Sources: sites, MaxLinksPerSource: 10}, nil)
}

func TestFetchSkipsFailingSourcesInPriorityOrder(t *testing.T) {
	t.Parallel()

	var sites []config.SourceConfig
	sc := &scriptedScanner{
		results: map[string][]domain.Article{},
		errs:    map[string]error{},
	}

	// First 27 sources fail, the last two supply 3 and 4 articles.
	for i := 1; i <= 29; i++ {
		name := fmt.Sprintf("source-%02d", i)
		sites = append(sites, config.SourceConfig{Name: name, URL: "https://" + name})
		if i <= 27 {
			sc.errs[name] = fmt.Errorf("connection refused")
		}
	}
	sc.results["source-28"] = siteArticles("source-28", 3)
	sc.results["source-29"] = siteArticles("source-29", 4)

	articles, err := newSource(t, sites, sc).Fetch(context.Background(), 5)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(articles) != 5 {
		t.Fatalf("expected 5 articles, got %d", len(articles))
	}
	for i := 0; i < 3; i++ {
		if articles[i].Source != "source-28" {
			t.Fatalf("article %d should come from source-28, got %s", i, articles[i].Source)
		}
	}
	for i := 3; i < 5; i++ {
		if articles[i].Source != "source-29" {
			t.Fatalf("article %d should come from source-29, got %s", i, articles[i].Source)
		}
	}
}

func TestFetchReturnsPartialResultWhenSourcesExhausted(t *testing.T) {
	t.Parallel()

	sites := []config.SourceConfig{
		{Name: "alpha", URL: "https://alpha"},
		{Name: "beta", URL: "https://beta"},
	}
	sc := &scriptedScanner{
		results: map[string][]domain.Article{"alpha": siteArticles("alpha", 2)},
		errs:    map[string]error{"beta": fmt.Errorf("parse failure")},
	}

	articles, err := newSource(t, sites, sc).Fetch(context.Background(), 5)
	if err != nil {
		t.Fatalf("partial result must not be an error, got %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected degraded result of 2 articles, got %d", len(articles))
	}
}

func TestFetchAllSourcesFailReturnsEmpty(t *testing.T) {
	t.Parallel()

	sites := []config.SourceConfig{
		{Name: "alpha", URL: "https://alpha"},
		{Name: "beta", URL: "https://beta"},
	}
	sc := &scriptedScanner{errs: map[string]error{
		"alpha": fmt.Errorf("timeout"),
		"beta":  fmt.Errorf("timeout"),
	}}

	articles, err := newSource(t, sites, sc).Fetch(context.Background(), 5)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(articles) != 0 {
		t.Fatalf("expected no articles, got %d", len(articles))
	}
}

func TestFetchDeduplicatesByURL(t *testing.T) {
	t.Parallel()

	shared := domain.Article{Title: "Syndicated wire story", URL: "https://wire.example.org/1"}
	sites := []config.SourceConfig{
		{Name: "alpha", URL: "https://alpha"},
		{Name: "beta", URL: "https://beta"},
	}
	sc := &scriptedScanner{results: map[string][]domain.Article{
		"alpha": {shared},
		"beta":  {shared, siteArticles("beta", 1)[0]},
	}}

	articles, err := newSource(t, sites, sc).Fetch(context.Background(), 5)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected duplicate URL collapsed to 2 articles, got %d", len(articles))
	}
}

func TestFetchStopsAtTarget(t *testing.T) {
	t.Parallel()

	sites := []config.SourceConfig{
		{Name: "alpha", URL: "https://alpha"},
		{Name: "beta", URL: "https://beta"},
	}
	sc := &scriptedScanner{results: map[string][]domain.Article{
		"alpha": siteArticles("alpha", 3),
		"beta":  siteArticles("beta", 3),
	}}

	articles, err := newSource(t, sites, sc).Fetch(context.Background(), 3)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(articles) != 3 {
		t.Fatalf("expected exactly 3 articles, got %d", len(articles))
	}
	for _, article := range articles {
		if article.Source != "alpha" {
			t.Fatalf("beta should never be scanned once target reached, got article from %s", article.Source)
		}
	}
}
