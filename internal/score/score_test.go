package score

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedScorer() *Scorer {
	return &Scorer{Now: func() time.Time { return time.Date(2024, 11, 6, 12, 0, 0, 0, time.UTC) }}
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"election", "results"}, Terms("Election results"))
	assert.Equal(t, []string{"go", "22"}, Terms("Go a 1-22 go"))
	assert.Equal(t, []string{"café", "prices"}, Terms("  CAFÉ, prices!! "))
	assert.Empty(t, Terms("a ! ?"))
}

func TestScore_ElectionScenario(t *testing.T) {
	s := fixedScorer()
	terms := Terms("election results")

	relevant := s.Score("2024 election results today", "...", "https://a.com/1", terms)
	// two title hits and the recency boost
	assert.Equal(t, 10+10+8, relevant)

	junk := s.Score("shop now", "", "https://a.com/2", terms)
	assert.Equal(t, 0, junk)
	assert.Greater(t, relevant, junk)
}

func TestScore_Components(t *testing.T) {
	s := fixedScorer()
	terms := []string{"rust"}

	assert.Equal(t, 10+15, s.Score("Rust compiler gets faster builds", "", "https://x.example/a", terms))
	assert.Equal(t, 10, s.Score("Faster builds for the Rust compiler", "", "https://x.example/a", terms))
	assert.Equal(t, 5, s.Score("A compiler gets faster builds", "new rust release", "https://x.example/a", terms))
	assert.Equal(t, 3, s.Score("A compiler gets faster builds", "", "https://x.example/rust", terms))
}

func TestScore_RecencyWindow(t *testing.T) {
	s := fixedScorer()
	long := "Quarterly figures published for everyone"
	assert.Equal(t, 8, s.Score(long+" 2024", "", "", nil))
	assert.Equal(t, 8, s.Score(long, "", "https://x.example/2023/05/story", nil))
	assert.Equal(t, 0, s.Score(long+" 2019", "", "", nil))
	assert.Equal(t, 0, s.Score(long+" 20245", "", "", nil))
	assert.Equal(t, 8, s.Score(long, "Updated 3 hours ago", "", nil))
	assert.Equal(t, 8, s.Score("BREAKING: "+long, "", "", nil))
}

func TestScore_ClampAndCustomWeights(t *testing.T) {
	w := DefaultWeights()
	w.ShortTitlePenalty = 100
	s := &Scorer{Weights: &w, Now: fixedScorer().Now}
	assert.Equal(t, 0, s.Score("go", "go", "https://go.dev", []string{"go"}))

	w2 := DefaultWeights()
	w2.URLContains = 50
	s2 := &Scorer{Weights: &w2, Now: fixedScorer().Now}
	assert.Equal(t, 50, s2.Score("Nothing matching in this title", "", "https://go.dev", []string{"go"}))
}

func TestScore_Deterministic(t *testing.T) {
	s := fixedScorer()
	terms := Terms("market rally")
	a := s.Score("Market rally continues today", "stocks rally", "https://n.example/markets", terms)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a, s.Score("Market rally continues today", "stocks rally", "https://n.example/markets", terms))
	}
}

func TestScore_AddingTermToTitleNeverDecreases(t *testing.T) {
	s := fixedScorer()
	cases := []struct {
		title, desc, url string
		terms            []string
	}{
		{"Short", "", "https://x.example/", []string{"climate"}},
		{"Long headline about something else entirely", "climate", "https://x.example/climate", []string{"climate", "policy"}},
		{"", "", "", []string{"ai"}},
		{"Markets close higher", "policy today", "https://x.example/2024", []string{"policy"}},
	}
	for _, tc := range cases {
		base := s.Score(tc.title, tc.desc, tc.url, tc.terms)
		for _, term := range tc.terms {
			for _, title := range []string{term + " " + tc.title, tc.title + " " + term} {
				got := s.Score(title, tc.desc, tc.url, tc.terms)
				assert.GreaterOrEqual(t, got, base, "title %q", title)
			}
		}
	}
}
