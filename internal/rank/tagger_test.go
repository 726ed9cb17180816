package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gigscout-engine/internal/config"
	"gigscout-engine/internal/domain"
)

func TestTagger(t *testing.T) {
	tg := Tagger{Categories: []config.Category{
		{Name: "Translation", Terms: []string{"hebrew translation", "translator"}, HebrewTerms: []string{"תרגום"}},
		{Name: "Music", Terms: []string{"piano", "lyrics"}},
		{Name: "Empty", Terms: []string{"  "}},
	}}

	tests := []struct {
		name string
		in   domain.RawPosting
		want []string
	}{
		{
			name: "searched category first",
			in:   domain.RawPosting{Title: "Translator for song lyrics", Category: "Music"},
			want: []string{"Music", "Translation"},
		},
		{
			name: "hebrew terms",
			in:   domain.RawPosting{Title: "דרוש תרגום"},
			want: []string{"Translation"},
		},
		{
			name: "no match",
			in:   domain.RawPosting{Title: "something else"},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tg.Tags(tt.in))
		})
	}
}

func TestTagger_ApplyDoesNotMutateInput(t *testing.T) {
	in := []domain.RawPosting{{Title: "piano"}}
	out := Tagger{Categories: []config.Category{{Name: "Music", Terms: []string{"piano"}}}}.Apply(in)
	assert.Nil(t, in[0].Tags)
	assert.Equal(t, []string{"Music"}, out[0].Tags)
}
