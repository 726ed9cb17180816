package scrape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigscout-engine/internal/config"
	"gigscout-engine/internal/domain"
)

type stubDetector struct {
	lang       string
	confidence float64
	ok         bool
	calls      []string
}

func (s *stubDetector) Detect(text string) (string, float64, bool) {
	s.calls = append(s.calls, text)
	return s.lang, s.confidence, s.ok
}

func english() *stubDetector { return &stubDetector{lang: "en", confidence: 1, ok: true} }

func TestFilter_Check(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		desc     string
		platform domain.Platform
		want     Verdict
	}{
		{
			name:     "client asking for translation",
			title:    "Need Hebrew to English translation",
			desc:     "Translate a 2-page document",
			platform: "upwork",
			want:     Verdict{Keep: true},
		},
		{
			name:     "seller offer in title",
			title:    "I will translate your document to Hebrew",
			platform: "upwork",
			want:     Verdict{Reason: ReasonSellerOffer},
		},
		{
			name:     "seller offer in description",
			title:    "Translation services",
			desc:     "Offering professional translation in 24h",
			platform: "freelancer",
			want:     Verdict{Reason: ReasonSellerOffer},
		},
		{
			name:     "hebrew seller phrase",
			title:    "translation",
			desc:     "מציע שירותי תרגום",
			platform: "janglo",
			want:     Verdict{Reason: ReasonSellerOffer},
		},
		{
			name:     "fiverr without client intent",
			title:    "Hebrew translation",
			desc:     "fast delivery",
			platform: "fiverr",
			want:     Verdict{Reason: ReasonNoClientIntent},
		},
		{
			name:     "fiverr with client intent",
			title:    "Looking for a Hebrew translation",
			platform: "fiverr",
			want:     Verdict{Keep: true},
		},
		{
			name:     "platform name is normalized",
			title:    "Hebrew translation",
			platform: " Fiverr ",
			want:     Verdict{Reason: ReasonNoClientIntent},
		},
		{
			name:     "negative keyword",
			title:    "Translation for marketing site",
			platform: "upwork",
			want:     Verdict{Reason: ReasonNegativeKeyword},
		},
		{
			name:     "no category keyword",
			title:    "Need a plumber",
			platform: "upwork",
			want:     Verdict{Reason: ReasonNoCategoryKeyword},
		},
		{
			name:     "case folded",
			title:    "PIANIST WANTED FOR WEDDING",
			platform: "upwork",
			want:     Verdict{Keep: true},
		},
		{
			name:     "hebrew positive keyword",
			title:    "דרוש מתרגם",
			platform: "xplace",
			want:     Verdict{Keep: true},
		},
		{
			name: "empty posting",
			want: Verdict{Reason: ReasonNoCategoryKeyword},
		},
	}

	f := NewFilter(DefaultRules(), english())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Check(tt.title, tt.desc, tt.platform))
			assert.Equal(t, tt.want.Keep, f.IsRelevant(tt.title, tt.desc, tt.platform))
		})
	}
}

func TestFilter_SellerPhraseAlwaysRejects(t *testing.T) {
	f := NewFilter(DefaultRules(), english())
	for _, phrase := range []string{"I will sing", "i offer piano", "I provide translation", "offering vocal", "we provide music service"} {
		for _, p := range []domain.Platform{"upwork", "fiverr", "freelancer", "alljobs"} {
			assert.False(t, f.IsRelevant(phrase+" lessons with translation", "", p), "%q on %s", phrase, p)
			assert.False(t, f.IsRelevant("translation", phrase+" today", p), "%q in description on %s", phrase, p)
		}
	}
}

func TestFilter_LanguageGate(t *testing.T) {
	longDesc := strings.Repeat("a translation job ", 5)

	t.Run("long description detected", func(t *testing.T) {
		d := &stubDetector{lang: "de", confidence: 0.9, ok: true}
		f := NewFilter(DefaultRules(), d)
		v := f.Check("translation", longDesc, "upwork")
		assert.Equal(t, Verdict{Reason: ReasonLanguage}, v)
		require.Len(t, d.calls, 1)
		assert.Equal(t, fold(longDesc), d.calls[0])
	})

	t.Run("title used when description is short", func(t *testing.T) {
		d := &stubDetector{lang: "de", confidence: 0.9, ok: true}
		f := NewFilter(DefaultRules(), d)
		title := "Übersetzung translation gesucht"
		assert.False(t, f.IsRelevant(title, "short", "upwork"))
		require.Len(t, d.calls, 1)
		assert.Equal(t, fold(title), d.calls[0])
	})

	t.Run("short text skips detection", func(t *testing.T) {
		d := &stubDetector{lang: "de", confidence: 1, ok: true}
		f := NewFilter(DefaultRules(), d)
		assert.True(t, f.IsRelevant("translation job", "short", "upwork"))
		assert.Empty(t, d.calls)
	})

	t.Run("inconclusive detection passes", func(t *testing.T) {
		f := NewFilter(DefaultRules(), &stubDetector{ok: false})
		assert.True(t, f.IsRelevant("translation", longDesc, "upwork"))
	})

	t.Run("low confidence passes", func(t *testing.T) {
		rules := DefaultRules()
		rules.Language.MinConfidence = 0.5
		f := NewFilter(rules, &stubDetector{lang: "de", confidence: 0.2, ok: true})
		assert.True(t, f.IsRelevant("translation", longDesc, "upwork"))
	})

	t.Run("nil detector disables gate", func(t *testing.T) {
		f := NewFilter(DefaultRules(), nil)
		assert.True(t, f.IsRelevant("translation", longDesc, "upwork"))
	})
}

func TestFilter_LanguageGateWhatlang(t *testing.T) {
	f := NewFilter(DefaultRules(), WhatlangDetector{})

	longHebrew := "מחפשים מתרגם מקצועי לתרגום מסמכים משפטיים ארוכים מעברית לאנגלית בהקדם האפשרי translation"
	assert.Equal(t, Verdict{Reason: ReasonLanguage}, f.Check("translation", longHebrew, "upwork"))

	// below both thresholds the detector is never consulted
	assert.True(t, f.IsRelevant("תרגום", "תרגום קצר", "upwork"))
}

func TestWhatlangDetector(t *testing.T) {
	lang, _, ok := WhatlangDetector{}.Detect("שלום לכולם, אנחנו מחפשים מתרגם מקצועי לפרויקט חדש וגדול")
	require.True(t, ok)
	assert.Equal(t, "he", lang)

	_, _, ok = WhatlangDetector{}.Detect("")
	assert.False(t, ok)
}

func TestFilter_WhatlangPassesShortEnglish(t *testing.T) {
	f := NewFilter(DefaultRules(), WhatlangDetector{})
	for _, title := range []string{
		"Need Hebrew translator",
		"music translation lyrics help",
		"Need Hebrew to English translation",
		"Piano session player needed",
	} {
		assert.Equal(t, Verdict{Keep: true}, f.Check(title, "", "upwork"), title)
	}
	desc := "Looking for English Hebrew localization of a mobile app, about 3000 words"
	assert.Equal(t, Verdict{Keep: true}, f.Check("Localization", desc, "upwork"))
}

func TestRulesFromConfig(t *testing.T) {
	t.Run("defaults without sections", func(t *testing.T) {
		var cfg config.Config
		config.ApplyDefaults(&cfg)
		r, err := RulesFromConfig(cfg)
		require.NoError(t, err)
		assert.True(t, r.ClientIntentPlatforms["fiverr"])
		assert.Len(t, r.SellerPatterns, len(defaultSellerPatterns))
		assert.Equal(t, "en", r.Language.Target)
		assert.Equal(t, 50, r.Language.MinDescriptionRunes)
	})

	t.Run("platform capabilities from config", func(t *testing.T) {
		var cfg config.Config
		cfg.Platforms = []config.Platform{
			{Name: "Upwork", Enabled: true, ClientIntent: true},
			{Name: "fiverr", Enabled: true},
		}
		r, err := RulesFromConfig(cfg)
		require.NoError(t, err)
		assert.True(t, r.ClientIntentPlatforms["upwork"])
		assert.False(t, r.ClientIntentPlatforms["fiverr"])
	})

	t.Run("custom keyword lists replace defaults", func(t *testing.T) {
		var cfg config.Config
		cfg.Filter.PositiveKeywords = []string{"  Cello "}
		cfg.Filter.NegativeKeywords = []string{"wedding"}
		r, err := RulesFromConfig(cfg)
		require.NoError(t, err)
		f := NewFilter(r, nil)
		assert.True(t, f.IsRelevant("Need a CELLO player", "", "upwork"))
		assert.False(t, f.IsRelevant("cello for wedding", "", "upwork"))
		assert.False(t, f.IsRelevant("translation", "", "upwork"))
	})

	t.Run("empty lists fall back but empty platform capabilities do not", func(t *testing.T) {
		var cfg config.Config
		cfg.Filter.SellerPatterns = []string{}
		cfg.Filter.PositiveKeywords = []string{}
		cfg.Platforms = []config.Platform{{Name: "fiverr", Enabled: true}}
		r, err := RulesFromConfig(cfg)
		require.NoError(t, err)
		assert.Len(t, r.SellerPatterns, len(defaultSellerPatterns))
		assert.Len(t, r.PositiveKeywords, len(defaultPositiveKeywords))
		assert.Empty(t, r.ClientIntentPlatforms)
	})

	t.Run("bad regex", func(t *testing.T) {
		var cfg config.Config
		cfg.Filter.SellerPatterns = []string{"i will ("}
		_, err := RulesFromConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "seller patterns")
	})
}
