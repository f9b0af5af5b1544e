package scanner

import (
	"context"
	"fmt"

	"NewsreelAgent/internal/domain"
)

// DefaultStrategy names the generic homepage scanner used when a site does
// not select one explicitly.
const DefaultStrategy = "homepage"

// Request carries all parameters required to scan one news site.
type Request struct {
	SiteName string
	URL      string
	// MaxLinks caps how many candidate article links are followed.
	MaxLinks int
	// Limit stops extraction once this many valid articles were collected;
	// zero means no limit.
	Limit int
}

// Scanner captures a single extraction strategy implementation.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Article, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name, falling back to the default strategy
// for an empty name.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if name == "" {
		name = DefaultStrategy
	}
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
