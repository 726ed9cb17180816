package rank

import (
	"strings"

	"gigscout-engine/internal/config"
	"gigscout-engine/internal/domain"
)

// Tagger labels postings with every configured category whose terms appear in
// the posting text. The category the posting was searched under always comes
// first.
type Tagger struct {
	Categories []config.Category
}

func (t Tagger) Tags(p domain.RawPosting) []string {
	text := strings.ToLower(p.Title + " " + p.Description)

	var tags []string
	if p.Category != "" {
		tags = append(tags, p.Category)
	}

	for _, c := range t.Categories {
		if matchesAny(text, c.Terms) || matchesAny(text, c.HebrewTerms) {
			tags = append(tags, c.Name)
		}
	}
	return uniq(tags)
}

// Apply returns a copy of the batch with Tags filled in.
func (t Tagger) Apply(batch []domain.RawPosting) []domain.RawPosting {
	out := make([]domain.RawPosting, len(batch))
	for i, p := range batch {
		p.Tags = t.Tags(p)
		out[i] = p
	}
	return out
}

func matchesAny(text string, needles []string) bool {
	for _, n := range needles {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
