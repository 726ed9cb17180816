package domain

import (
	"strings"
	"time"
)

// Platform identifies the listing site a posting came from.
type Platform string

// Normalize lower-cases and trims a platform identifier so config keys and
// adapter names compare equal.
func (p Platform) Normalize() Platform {
	return Platform(strings.ToLower(strings.TrimSpace(string(p))))
}

func (p Platform) String() string { return string(p) }

// RawPosting is a single scraped record, tagged with where and when it was found.
type RawPosting struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Link         string    `json:"link,omitempty"`
	Platform     Platform  `json:"platform"`
	SearchTerm   string    `json:"search_term"`
	Category     string    `json:"category,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Malformed reports postings that cannot be shown in a digest.
func (p RawPosting) Malformed() bool {
	return strings.TrimSpace(p.Title) == ""
}
