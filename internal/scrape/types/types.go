package types

import (
	"context"

	"gigscout-engine/internal/domain"
)

// Source fetches postings for one search term from one platform. An empty
// slice means no results; an error means the fetch itself failed.
type Source interface {
	Name() string
	Platform() domain.Platform
	Fetch(ctx context.Context, term string) ([]domain.RawPosting, error)
}

// Registry maps normalized platform names to their sources.
type Registry map[domain.Platform]Source

func NewRegistry(sources ...Source) Registry {
	r := make(Registry, len(sources))
	for _, s := range sources {
		r.Add(s)
	}
	return r
}

func (r Registry) Add(s Source) {
	r[s.Platform().Normalize()] = s
}

func (r Registry) Lookup(p domain.Platform) (Source, bool) {
	s, ok := r[p.Normalize()]
	return s, ok
}
