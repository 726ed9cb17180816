package notify

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigscout-engine/internal/domain"
)

func jerusalem(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)
	return loc
}

func TestBuildDigest(t *testing.T) {
	loc := jerusalem(t)
	at := time.Date(2026, 7, 1, 5, 0, 0, 0, time.UTC)

	postings := []domain.RawPosting{
		{
			Title:        "Hebrew translator needed",
			Description:  strings.Repeat("א", 600),
			Link:         "https://u/1",
			Platform:     "upwork",
			SearchTerm:   "hebrew translation",
			Tags:         []string{"Translation", "Music"},
			DiscoveredAt: at,
		},
		{Title: "Piano session", Platform: "janglo", SearchTerm: "piano"},
	}

	d := BuildDigest("run-1", postings, at, loc)
	assert.Equal(t, "Job Bot Report - 2 jobs - 2026-07-01", d.Subject)
	assert.Equal(t, "run-1", d.RunID)
	assert.Len(t, d.Postings, 2)

	assert.Contains(t, d.Body, "--- Job 1 ---\nTitle: Hebrew translator needed\nPlatform: upwork\nSearch Term: hebrew translation\nCategories: Translation, Music\nLink: https://u/1\n")
	assert.Contains(t, d.Body, "Timestamp: 2026-07-01 08:00:00 IDT\n")
	assert.Contains(t, d.Body, "Description: "+strings.Repeat("א", 500)+"...\n")
	assert.NotContains(t, d.Body, strings.Repeat("א", 501))

	assert.Contains(t, d.Body, "--- Job 2 ---\nTitle: Piano session\nPlatform: janglo\nSearch Term: piano\nLink: N/A\nTimestamp: N/A\nDescription: No description provided.\n")
}

func TestBuildDigest_Empty(t *testing.T) {
	at := time.Date(2026, 1, 1, 23, 30, 0, 0, time.UTC)
	d := BuildDigest("r", nil, at, jerusalem(t))
	assert.Equal(t, "Job Bot Report - 0 jobs - 2026-01-02", d.Subject, "date is local")
	assert.Contains(t, d.Body, "No relevant jobs found")
}
