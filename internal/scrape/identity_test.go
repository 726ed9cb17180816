package scrape

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigscout-engine/internal/domain"
)

func posting(platform, title, link string) domain.RawPosting {
	return domain.RawPosting{Platform: domain.Platform(platform), Title: title, Link: link}
}

func TestFingerprint_Deterministic(t *testing.T) {
	p := posting("upwork", "Hebrew translator needed", "https://upwork.com/jobs/1")
	a := Fingerprint(p)
	p.Description = "ignored"
	p.SearchTerm = "ignored"
	assert.Equal(t, a, Fingerprint(p))
	assert.Len(t, a.String(), 64)
}

func TestFingerprint_FieldSensitive(t *testing.T) {
	base := posting("upwork", "Translate song", "https://x/1")
	variants := []domain.RawPosting{
		posting("fiverr", "Translate song", "https://x/1"),
		posting("upwork", "Translate song!", "https://x/1"),
		posting("upwork", "Translate song", "https://x/2"),
		posting("upwork", "Translate song", ""),
	}
	for _, v := range variants {
		assert.NotEqual(t, Fingerprint(base), Fingerprint(v), "%+v", v)
	}
}

func TestFingerprint_NoFieldShift(t *testing.T) {
	pairs := [][2]domain.RawPosting{
		{posting("a-b", "c", "d"), posting("a", "b-c", "d")},
		{posting("ab", "", "c"), posting("a", "b", "c")},
		{posting("a", "b", ""), posting("a", "", "b")},
		{posting("", "ab", ""), posting("a", "b", "")},
	}
	for _, pr := range pairs {
		assert.NotEqual(t, Fingerprint(pr[0]), Fingerprint(pr[1]), "%+v vs %+v", pr[0], pr[1])
	}
}

func TestFingerprint_RandomSampleNoCollisions(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []rune("ab-_ /שלום")
	randStr := func() string {
		n := rng.Intn(6)
		r := make([]rune, n)
		for i := range r {
			r[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return string(r)
	}

	seen := map[Identity][3]string{}
	for i := 0; i < 5000; i++ {
		key := [3]string{randStr(), randStr(), randStr()}
		id := Fingerprint(posting(key[0], key[1], key[2]))
		if prev, ok := seen[id]; ok {
			require.Equal(t, prev, key, "collision")
			continue
		}
		seen[id] = key
	}
}

func TestDeduplicate(t *testing.T) {
	a := posting("upwork", "A", "l1")
	b := posting("upwork", "B", "l2")
	a2 := a
	a2.Description = "later copy"
	c := posting("fiverr", "A", "l1")

	in := []domain.RawPosting{a, b, a2, c, b}
	out := Deduplicate(in)

	require.Len(t, out, 3)
	assert.Equal(t, []domain.RawPosting{a, b, c}, out)
	assert.Equal(t, out, Deduplicate(out), "idempotent")
	assert.Empty(t, Deduplicate(nil))
}

func TestDeduplicate_PreservesOrder(t *testing.T) {
	var in []domain.RawPosting
	for _, title := range []string{"z", "y", "x", "y", "w", "z"} {
		in = append(in, posting("p", title, ""))
	}
	var titles []string
	for _, p := range Deduplicate(in) {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"z", "y", "x", "w"}, titles)
}
