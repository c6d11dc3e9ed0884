// Package score computes additive relevance scores for candidate results.
package score

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Weights are the tuning parameters of the scoring model. Only the relative
// order they induce matters; callers may adjust them freely.
type Weights struct {
	TitleContains       int
	TitlePrefix         int
	DescriptionContains int
	URLContains         int
	Recency             int
	ShortTitlePenalty   int
	MinTitleLen         int
}

// DefaultWeights returns the stock scoring weights.
func DefaultWeights() Weights {
	return Weights{
		TitleContains:       10,
		TitlePrefix:         15,
		DescriptionContains: 5,
		URLContains:         3,
		Recency:             8,
		ShortTitlePenalty:   5,
		MinTitleLen:         20,
	}
}

var (
	yearToken      = regexp.MustCompile(`\b(\d{4})\b`)
	freshnessTerms = []string{"today", "just now", "breaking", "hours ago", "minutes ago", "this morning", "tonight"}
)

// Scorer scores candidates against query terms. The zero value uses
// DefaultWeights and the wall clock.
type Scorer struct {
	Weights *Weights
	// Now anchors the recency window. Nil means time.Now.
	Now func() time.Time
}

// Score returns the non-negative relevance of a candidate with the given
// title, description and URL. terms are expected to come from Terms.
func (s *Scorer) Score(title, description, rawURL string, terms []string) int {
	w := DefaultWeights()
	if s != nil && s.Weights != nil {
		w = *s.Weights
	}
	t := strings.ToLower(strings.TrimSpace(title))
	d := strings.ToLower(description)
	u := strings.ToLower(rawURL)

	total := 0
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(t, term) {
			total += w.TitleContains
			if strings.HasPrefix(t, term) {
				total += w.TitlePrefix
			}
		}
		if strings.Contains(d, term) {
			total += w.DescriptionContains
		}
		if strings.Contains(u, term) {
			total += w.URLContains
		}
	}
	if s.isRecent(t + " " + d + " " + u) {
		total += w.Recency
	}
	if utf8.RuneCountInString(t) < w.MinTitleLen {
		total -= w.ShortTitlePenalty
	}
	if total < 0 {
		return 0
	}
	return total
}

func (s *Scorer) isRecent(text string) bool {
	for _, p := range freshnessTerms {
		if strings.Contains(text, p) {
			return true
		}
	}
	year := s.now().Year()
	for _, m := range yearToken.FindAllStringSubmatch(text, -1) {
		y, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if y == year || y == year-1 {
			return true
		}
	}
	return false
}

func (s *Scorer) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Terms splits a query into unique lower-cased terms. Runs of characters
// that are neither letters nor digits separate terms; terms shorter than two
// characters are dropped.
func Terms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
