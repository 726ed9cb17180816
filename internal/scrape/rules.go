package scrape

import (
	"fmt"
	"regexp"
	"strings"

	"gigscout-engine/internal/config"
	"gigscout-engine/internal/domain"
)

// Built-in rule lists. Config lists replace these wholesale when non-empty.
var (
	defaultSellerPatterns = []string{
		`i will\s+\w+`,
		`i offer\s+\w+`,
		`i provide\s+\w+`,
		`offering\s+\w+`,
		`provide\s+\w+\s+service`,
		`אני אתרגם`,
		`מציע שירותי`,
		`למתן שירותי`,
	}

	defaultClientIntentPatterns = []string{
		`i need`,
		`looking for`,
		`seeking`,
		`require`,
		`want to hire`,
	}

	defaultNegativeKeywords = []string{
		"gig", "kwork", "profile creation", "resume writing", "data entry",
		"virtual assistant", "web research", "pdf conversion", "typing",
		"lead generation", "social media manager", "content writer",
		"logo design", "web development", "app development", "marketing",
		"אייפון", "אנדרואיד", "עיצוב", "קידום אתרים", "בינה מלאכותית", "בונה אתרים",
	}

	defaultPositiveKeywords = []string{
		"translate", "translation", "translator", "localization", "hebrew", "english",
		"song", "lyrics", "music", "piano", "pianist", "recording", "session",
		"vocal", "harmony", "singer",
		"תרגום", "מתרגם", "שיר", "פסנתר", "הקלטה", "זמר",
	}

	defaultClientIntentPlatforms = []domain.Platform{"fiverr"}
)

// LanguageGate configures the best-effort language check.
type LanguageGate struct {
	// Target is an ISO 639-1 code; empty disables the gate.
	Target string
	// Text shorter than these rune counts is not sent to the detector.
	MinDescriptionRunes int
	MinTitleRunes       int
	// Detections below MinConfidence are treated as inconclusive.
	MinConfidence float64
}

type Rules struct {
	SellerPatterns        []*regexp.Regexp
	ClientIntentPatterns  []*regexp.Regexp
	ClientIntentPlatforms map[domain.Platform]bool
	NegativeKeywords      []string
	PositiveKeywords      []string
	Language              LanguageGate
}

func DefaultRules() Rules {
	r, err := buildRules(nil, nil, nil, nil, nil, LanguageGate{
		Target:              "en",
		MinDescriptionRunes: 50,
		MinTitleRunes:       20,
	})
	if err != nil {
		panic(err) // built-in patterns always compile
	}
	return r
}

// RulesFromConfig builds rules from the filter and platform sections.
func RulesFromConfig(cfg config.Config) (Rules, error) {
	// Without a platform section the built-in capability map applies.
	var platforms []domain.Platform
	if len(cfg.Platforms) > 0 {
		platforms = []domain.Platform{}
		for name := range cfg.ClientIntentPlatforms() {
			platforms = append(platforms, domain.Platform(name))
		}
	}
	lang := cfg.Filter.Language
	return buildRules(
		cfg.Filter.SellerPatterns,
		cfg.Filter.ClientIntentPatterns,
		platforms,
		cfg.Filter.NegativeKeywords,
		cfg.Filter.PositiveKeywords,
		LanguageGate{
			Target:              strings.ToLower(strings.TrimSpace(lang.Target)),
			MinDescriptionRunes: lang.MinDescriptionRunes,
			MinTitleRunes:       lang.MinTitleRunes,
			MinConfidence:       lang.MinConfidence,
		},
	)
}

// buildRules falls back to the built-in list for any empty pattern or keyword
// list. The platform list differs: only nil selects the defaults, an empty
// non-nil list means no platform needs client intent.
func buildRules(seller, intent []string, platforms []domain.Platform, negative, positive []string, lang LanguageGate) (Rules, error) {
	if len(seller) == 0 {
		seller = defaultSellerPatterns
	}
	if len(intent) == 0 {
		intent = defaultClientIntentPatterns
	}
	if platforms == nil {
		platforms = defaultClientIntentPlatforms
	}
	if len(negative) == 0 {
		negative = defaultNegativeKeywords
	}
	if len(positive) == 0 {
		positive = defaultPositiveKeywords
	}

	sp, err := compileAll(seller)
	if err != nil {
		return Rules{}, fmt.Errorf("scrape: seller patterns: %w", err)
	}
	ip, err := compileAll(intent)
	if err != nil {
		return Rules{}, fmt.Errorf("scrape: client intent patterns: %w", err)
	}

	caps := make(map[domain.Platform]bool, len(platforms))
	for _, p := range platforms {
		caps[p.Normalize()] = true
	}

	return Rules{
		SellerPatterns:        sp,
		ClientIntentPatterns:  ip,
		ClientIntentPlatforms: caps,
		NegativeKeywords:      foldAll(negative),
		PositiveKeywords:      foldAll(positive),
		Language:              lang,
	}, nil
}

func compileAll(pats []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(pats))
	for _, p := range pats {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

func foldAll(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		x = fold(strings.TrimSpace(x))
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}
