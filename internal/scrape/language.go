package scrape

import "github.com/abadojack/whatlanggo"

// LanguageDetector guesses the language of a text. ok is false when the
// detector could not decide.
type LanguageDetector interface {
	Detect(text string) (lang string, confidence float64, ok bool)
}

// WhatlangDetector detects languages with trigram and script analysis.
// Guesses whatlanggo itself marks unreliable are reported as undecided, which
// is the common case for short English titles.
type WhatlangDetector struct{}

func (WhatlangDetector) Detect(text string) (string, float64, bool) {
	info := whatlanggo.Detect(text)
	if info.Lang < 0 || info.Script == nil || !info.IsReliable() {
		return "", 0, false
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return "", 0, false
	}
	return code, info.Confidence, true
}
