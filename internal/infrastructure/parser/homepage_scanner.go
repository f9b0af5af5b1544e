package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsreelAgent/internal/domain"
	"NewsreelAgent/internal/scanner"
)

const (
	minTitleLength   = 10
	minContentLength = 200
	defaultMaxLinks  = 10
)

// HomepageScanner extracts articles from an arbitrary news-site homepage.
// Candidate links are picked by URL shape, then each candidate page is
// fetched and reduced to title plus paragraph text.
type HomepageScanner struct {
	client    *http.Client
	userAgent string
}

var _ scanner.Scanner = (*HomepageScanner)(nil)

// NewHomepageScanner wires an HTTP client; a nil client gets a 30s timeout.
func NewHomepageScanner(client *http.Client, userAgent string) *HomepageScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HomepageScanner{client: client, userAgent: userAgent}
}

// Name identifies the strategy inside the registry.
func (h *HomepageScanner) Name() string {
	return scanner.DefaultStrategy
}

// Scan fetches the site homepage, follows candidate article links, and
// returns every article that passes validation, up to req.Limit.
func (h *HomepageScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	doc, err := h.fetchDocument(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
	}

	maxLinks := req.MaxLinks
	if maxLinks <= 0 {
		maxLinks = defaultMaxLinks
	}

	links := collectArticleLinks(doc, req.URL, maxLinks)

	var articles []domain.Article
	for _, link := range links {
		if req.Limit > 0 && len(articles) >= req.Limit {
			break
		}

		article, err := h.extractArticle(ctx, link, req.SiteName)
		if err != nil {
			continue
		}
		if !validArticle(article) {
			continue
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// ScrapeArticle fetches and validates a single article URL.
func (h *HomepageScanner) ScrapeArticle(ctx context.Context, articleURL, siteName string) (domain.Article, error) {
	article, err := h.extractArticle(ctx, articleURL, siteName)
	if err != nil {
		return domain.Article{}, err
	}
	if !validArticle(article) {
		return domain.Article{}, fmt.Errorf("article %s does not meet minimum quality requirements", articleURL)
	}
	return article, nil
}

func (h *HomepageScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (h *HomepageScanner) extractArticle(ctx context.Context, articleURL, siteName string) (domain.Article, error) {
	doc, err := h.fetchDocument(ctx, articleURL)
	if err != nil {
		return domain.Article{}, err
	}

	return domain.Article{
		Title:     extractTitle(doc),
		URL:       articleURL,
		Content:   extractBody(doc),
		Source:    siteName,
		ScrapedAt: time.Now().UTC(),
	}, nil
}

func collectArticleLinks(doc *goquery.Document, baseURL string, maxLinks int) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []string
	seen := map[string]struct{}{}

	doc.Find("a[href]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}

		full := abs.String()
		if full == baseURL || !looksLikeArticle(full) {
			return true
		}
		if _, ok := seen[full]; ok {
			return true
		}

		seen[full] = struct{}{}
		links = append(links, full)
		return len(links) < maxLinks
	})

	return links
}

// looksLikeArticle applies the URL-shape heuristic used to tell story pages
// apart from section indexes: article/news/story path markers or a year
// segment in the path.
func looksLikeArticle(link string) bool {
	lower := strings.ToLower(link)
	return strings.Contains(lower, "article") ||
		strings.Contains(lower, "news") ||
		strings.Contains(lower, "/story/") ||
		strings.Contains(lower, "/20")
}

func extractTitle(doc *goquery.Document) string {
	if title, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			return trimmed
		}
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func extractBody(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n")
}

func validArticle(article domain.Article) bool {
	if len(article.Title) < minTitleLength {
		return false
	}
	if len(article.Content) < minContentLength {
		return false
	}
	return article.URL != ""
}
