package scrape

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/scrape/util"
)

// Origin is the driver-side metadata stamped onto adapter output.
type Origin struct {
	Platform   domain.Platform
	SearchTerm string
	Category   string
	At         time.Time
}

type ProcessStats struct {
	Seen     int
	Kept     int
	Rejected map[string]int
}

// ProcessPostings tags raw adapter output with its origin, drops malformed
// records and keeps only what the filter accepts. Order is preserved.
func ProcessPostings(ctx context.Context, logger *slog.Logger, f *Filter, origin Origin, raw []domain.RawPosting) ([]domain.RawPosting, ProcessStats) {
	if logger == nil {
		logger = slog.Default()
	}
	stats := ProcessStats{Rejected: map[string]int{}}

	var kept []domain.RawPosting
	for _, p := range raw {
		stats.Seen++

		p.Title = util.CleanText(p.Title)
		p.Description = util.CleanText(p.Description)
		p.Link = strings.TrimSpace(p.Link)
		p.Platform = origin.Platform
		p.SearchTerm = origin.SearchTerm
		p.Category = origin.Category
		p.DiscoveredAt = origin.At

		if p.Malformed() {
			stats.Rejected[ReasonMalformed]++
			logger.DebugContext(ctx, "posting skipped",
				"platform", p.Platform, "term", p.SearchTerm, "reason", ReasonMalformed, "link", p.Link)
			continue
		}

		v := f.Check(p.Title, p.Description, p.Platform)
		if !v.Keep {
			stats.Rejected[v.Reason]++
			logger.InfoContext(ctx, "filtered out irrelevant posting",
				"platform", p.Platform, "term", p.SearchTerm, "reason", v.Reason, "title", p.Title)
			continue
		}

		stats.Kept++
		kept = append(kept, p)
	}
	return kept, stats
}
