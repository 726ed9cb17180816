package scrape

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"gigscout-engine/internal/domain"
)

// Rejection reasons reported by Filter.Check.
const (
	ReasonSellerOffer       = "seller_offer"
	ReasonNoClientIntent    = "no_client_intent"
	ReasonLanguage          = "language"
	ReasonNegativeKeyword   = "negative_keyword"
	ReasonNoCategoryKeyword = "no_category_keyword"
	ReasonMalformed         = "malformed"
)

type Verdict struct {
	Keep   bool
	Reason string
}

// Filter decides whether a posting is a genuine, on-topic client request.
// It is safe for concurrent use.
type Filter struct {
	rules    Rules
	detector LanguageDetector
}

// NewFilter returns a Filter. A nil detector disables the language gate.
func NewFilter(rules Rules, detector LanguageDetector) *Filter {
	return &Filter{rules: rules, detector: detector}
}

func (f *Filter) IsRelevant(title, description string, platform domain.Platform) bool {
	return f.Check(title, description, platform).Keep
}

// Check runs every rule against title and description and reports the first
// one that rejects. Rules only ever reject, so order affects the reason but
// not the outcome.
func (f *Filter) Check(title, description string, platform domain.Platform) Verdict {
	t := fold(title)
	d := fold(description)

	// 1) Providers advertising themselves
	if matchesAny(f.rules.SellerPatterns, t, d) {
		return Verdict{Reason: ReasonSellerOffer}
	}

	// 2) Seller-dominated platforms must show a client asking
	if f.rules.ClientIntentPlatforms[platform.Normalize()] && !matchesAny(f.rules.ClientIntentPatterns, t, d) {
		return Verdict{Reason: ReasonNoClientIntent}
	}

	// 3) Language gate
	if !f.passesLanguage(t, d) {
		return Verdict{Reason: ReasonLanguage}
	}

	// 4) Off-topic work
	if containsAny(f.rules.NegativeKeywords, t, d) {
		return Verdict{Reason: ReasonNegativeKeyword}
	}

	// 5) Must mention one of the service categories
	if !containsAny(f.rules.PositiveKeywords, t, d) {
		return Verdict{Reason: ReasonNoCategoryKeyword}
	}

	return Verdict{Keep: true}
}

// passesLanguage detects on the description when it is long enough, else on
// the title; short text and inconclusive detections pass.
func (f *Filter) passesLanguage(title, desc string) bool {
	gate := f.rules.Language
	if f.detector == nil || gate.Target == "" {
		return true
	}

	var sample string
	switch {
	case utf8.RuneCountInString(desc) > gate.MinDescriptionRunes:
		sample = desc
	case utf8.RuneCountInString(title) > gate.MinTitleRunes:
		sample = title
	default:
		return true
	}

	lang, confidence, ok := f.detector.Detect(sample)
	if !ok || confidence < gate.MinConfidence {
		return true
	}
	return lang == gate.Target
}

func matchesAny(patterns []*regexp.Regexp, fields ...string) bool {
	for _, re := range patterns {
		for _, s := range fields {
			if s != "" && re.MatchString(s) {
				return true
			}
		}
	}
	return false
}

func containsAny(needles []string, fields ...string) bool {
	for _, n := range needles {
		for _, s := range fields {
			if strings.Contains(s, n) {
				return true
			}
		}
	}
	return false
}

// fold case-folds and NFC-normalises text for matching.
func fold(s string) string {
	// cases.Caser is stateful; one per call.
	return norm.NFC.String(cases.Fold().String(s))
}
