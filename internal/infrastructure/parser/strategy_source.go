package parser

import (
	"context"
	"fmt"
	"log/slog"

	"NewsreelAgent/internal/config"
	"NewsreelAgent/internal/domain"
	"NewsreelAgent/internal/ports"
	"NewsreelAgent/internal/scanner"
)

// StrategySource implements ArticleSource via registered scanner strategies.
// Sources are tried in configured priority order; a failing source is logged
// and skipped, never fatal. Collection stops early once the target count is
// reached.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SourceConfig
	maxLinks int
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, cfg config.ScraperConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    cfg.Sources,
		maxLinks: cfg.MaxLinksPerSource,
		logger:   log,
	}
}

// Fetch iterates sources in order, accumulating articles until target is
// reached or the source list is exhausted. Returns fewer than target
// articles without error when all sources together cannot supply them.
func (s *StrategySource) Fetch(ctx context.Context, target int) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch articles", "sources", len(s.sites), "target", target)

	var accumulated []domain.Article
	seen := map[string]struct{}{}

	for _, site := range s.sites {
		if len(accumulated) >= target {
			break
		}

		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			s.warn("source skipped", "site", site.Name, "error", err)
			continue
		}

		req := scanner.Request{
			SiteName: site.Name,
			URL:      site.URL,
			MaxLinks: s.maxLinks,
			Limit:    target - len(accumulated),
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			s.warn("source unavailable", "site", site.Name, "error", err)
			continue
		}

		for _, article := range results {
			if len(accumulated) >= target {
				break
			}
			if _, ok := seen[article.URL]; ok {
				continue
			}
			if article.Source == "" {
				article.Source = site.Name
			}
			seen[article.URL] = struct{}{}
			accumulated = append(accumulated, article)
		}

		s.debug("source produced articles", "site", site.Name, "count", len(results), "total", len(accumulated))
	}

	s.debug("fetch done", "total_articles", len(accumulated))
	return accumulated, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
