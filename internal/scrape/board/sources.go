package board

import (
	"fmt"
	"log/slog"
	"net/http"

	"gigscout-engine/internal/config"
	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/scrape/util"
)

// SiteFor resolves a configured platform to a site definition, applying the
// search_url and pages overrides.
func SiteFor(p config.Platform) (Site, error) {
	site, ok := Lookup(domain.Platform(p.Name))
	if !ok {
		return Site{}, fmt.Errorf("board: no site definition for platform %q", p.Name)
	}
	if p.SearchURL != "" {
		site.SearchURL = p.SearchURL
	}
	if p.Pages > 0 {
		site.Pages = p.Pages
	}
	return site, nil
}

// Scrapers builds a scraper for every enabled platform that has a site
// definition. Platforms without one are returned by name in skipped.
func Scrapers(platforms []config.Platform, client *http.Client, limiter *util.HostLimiter, logger *slog.Logger) (out []*Scraper, skipped []string) {
	for _, p := range platforms {
		if !p.Enabled {
			continue
		}
		site, err := SiteFor(p)
		if err != nil {
			skipped = append(skipped, p.Name)
			continue
		}
		out = append(out, NewScraper(site, client, limiter, logger))
	}
	return out, skipped
}
