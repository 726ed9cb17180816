package board

import (
	"net/url"
	"strconv"
	"strings"

	"gigscout-engine/internal/domain"
)

// Site describes how to search one listing board and where the fields live in
// its result cards. Each selector list is tried in order; the first one that
// matches wins.
type Site struct {
	Platform domain.Platform
	BaseURL  string
	// SearchURL contains {query} and optionally {page}.
	SearchURL string
	Pages     int
	// PlusSpaces encodes spaces in the query as '+' before escaping, which some
	// Israeli boards expect.
	PlusSpaces bool

	Cards       []string
	Title       []string
	Link        []string
	Description []string
	// TitleAsDescription copies the title when cards carry no description.
	TitleAsDescription bool
}

// PageURL renders the search URL for term on page (1-based).
func (s Site) PageURL(term string, page int) string {
	q := term
	if s.PlusSpaces {
		q = strings.ReplaceAll(q, " ", "+")
	}
	r := strings.NewReplacer(
		"{query}", url.QueryEscape(q),
		"{page}", strconv.Itoa(page),
	)
	return r.Replace(s.SearchURL)
}

func (s Site) pages() int {
	if s.Pages < 1 {
		return 1
	}
	return s.Pages
}

var sites = map[domain.Platform]Site{
	"upwork": {
		Platform:  "upwork",
		BaseURL:   "https://www.upwork.com",
		SearchURL: "https://www.upwork.com/nx/search/jobs/?q={query}&sort=recency",
		Cards:     []string{"section.job-tile", "div.air3-job-tile", "article[data-test='JobTile']"},
		Title:     []string{"h2.job-title", "h2.air3-job-tile-title", "h2 a"},
		Link:      []string{"a.job-title-link", "a.air3-job-tile-title-link", "h2 a"},
		Description: []string{
			"span.job-description-text",
			"span.air3-job-tile-description-text",
			"[data-test='JobDescription'] p",
		},
	},
	"fiverr": {
		Platform:           "fiverr",
		BaseURL:            "https://www.fiverr.com",
		SearchURL:          "https://www.fiverr.com/search/gigs?query={query}",
		Cards:              []string{"div.gig-card-layout", "article.gig-card"},
		Title:              []string{"h3.gig-card-title", "a.gig-card-link"},
		Link:               []string{"a.gig-card-link"},
		TitleAsDescription: true,
	},
	"freelancer": {
		Platform:    "freelancer",
		BaseURL:     "https://www.freelancer.com",
		SearchURL:   "https://www.freelancer.com/jobs/?keyword={query}",
		Cards:       []string{"div.JobSearchCard-item"},
		Title:       []string{"a.JobSearchCard-primary-heading-link"},
		Link:        []string{"a.JobSearchCard-primary-heading-link"},
		Description: []string{"p.JobSearchCard-primary-description"},
	},
	"janglo": {
		Platform:    "janglo",
		BaseURL:     "https://www.janglo.net",
		SearchURL:   "https://www.janglo.net/jobs/search?search_text={query}",
		PlusSpaces:  true,
		Cards:       []string{"div.listing-item", "article.job-post"},
		Title:       []string{"h2.listing-title", "a.listing-link"},
		Link:        []string{"a.listing-link"},
		Description: []string{"div.listing-content"},
	},
	"alljobs": {
		Platform:    "alljobs",
		BaseURL:     "https://www.alljobs.co.il",
		SearchURL:   "https://www.alljobs.co.il/SearchResults.aspx?page={page}&freeText={query}",
		Pages:       2,
		PlusSpaces:  true,
		Cards:       []string{"div.job-item", "article.job-ad"},
		Title:       []string{".job-title", ".JobTitle"},
		Link:        []string{"a.job-link", "a.JobUrl"},
		Description: []string{"div.job-description", "div.JobDescription"},
	},
	"jobmaster": {
		Platform:    "jobmaster",
		BaseURL:     "https://www.jobmaster.co.il",
		SearchURL:   "https://www.jobmaster.co.il/jobs/search?q={query}",
		Cards:       []string{"div.job-item", "li.job-ad"},
		Title:       []string{"h2.job-title", "a.job-link"},
		Link:        []string{"a.job-link"},
		Description: []string{"div.job-description"},
	},
	"xplace": {
		Platform:    "xplace",
		BaseURL:     "https://www.xplace.com",
		SearchURL:   "https://www.xplace.com/il/projects?q={query}",
		Cards:       []string{"div.project-item", "li.project"},
		Title:       []string{"h3.project-title", "a.project-link"},
		Link:        []string{"a.project-link", "h3 a"},
		Description: []string{"div.project-description", "p.description"},
	},
}

// Lookup returns the built-in definition for a platform.
func Lookup(p domain.Platform) (Site, bool) {
	s, ok := sites[p.Normalize()]
	return s, ok
}

// Known lists the platforms with built-in definitions.
func Known() []domain.Platform {
	out := make([]domain.Platform, 0, len(sites))
	for p := range sites {
		out = append(out, p)
	}
	return out
}
