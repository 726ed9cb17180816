package notify

import (
	"fmt"
	"strings"
	"time"

	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/scrape/util"
)

const descriptionLimit = 500

// Digest is the rendered report of one run.
type Digest struct {
	RunID       string
	Subject     string
	Body        string
	Postings    []domain.RawPosting
	GeneratedAt time.Time
}

// BuildDigest renders postings as a plain-text report. Dates and timestamps
// are shown in loc.
func BuildDigest(runID string, postings []domain.RawPosting, now time.Time, loc *time.Location) Digest {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	day := local.Format("2006-01-02")
	n := len(postings)

	var b strings.Builder
	fmt.Fprintf(&b, "Job Bot Report - %d jobs found on %s (%s)\n\n", n, day, loc)

	if n == 0 {
		b.WriteString("No relevant jobs found in this session.\n\n")
		b.WriteString("Consider adjusting search terms or checking scraper implementations if this occurs frequently.\n")
	}
	for i, p := range postings {
		fmt.Fprintf(&b, "--- Job %d ---\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", orNA(p.Title))
		fmt.Fprintf(&b, "Platform: %s\n", orNA(string(p.Platform)))
		fmt.Fprintf(&b, "Search Term: %s\n", orNA(p.SearchTerm))
		if len(p.Tags) > 0 {
			fmt.Fprintf(&b, "Categories: %s\n", strings.Join(p.Tags, ", "))
		}
		fmt.Fprintf(&b, "Link: %s\n", orNA(p.Link))
		if p.DiscoveredAt.IsZero() {
			b.WriteString("Timestamp: N/A\n")
		} else {
			fmt.Fprintf(&b, "Timestamp: %s\n", p.DiscoveredAt.In(loc).Format("2006-01-02 15:04:05 MST"))
		}
		desc := p.Description
		if strings.TrimSpace(desc) == "" {
			desc = "No description provided."
		}
		fmt.Fprintf(&b, "Description: %s\n\n", util.Truncate(desc, descriptionLimit))
	}

	return Digest{
		RunID:       runID,
		Subject:     fmt.Sprintf("Job Bot Report - %d jobs - %s", n, day),
		Body:        b.String(),
		Postings:    postings,
		GeneratedAt: now,
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
