package aggregate

import (
	"reflect"
	"testing"

	"github.com/hyperifyio/gonews/internal/search"
)

func TestKey_Normalizes(t *testing.T) {
	cases := map[string]string{
		"https://EXAMPLE.com/Page/?utm_source=x&utm_medium=y#frag": "https://example.com/page",
		"https://example.com:443/a?b=1&fbclid=z":                   "https://example.com/a?b=1",
		"http://example.com:80/":                                   "http://example.com",
		"https://example.com:8443/a":                               "https://example.com:8443/a",
		"  not a url/  ":                                           "not a url",
	}
	for in, want := range cases {
		if got := Key(in); got != want {
			t.Errorf("Key(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDedupe_KeepsHigherScore(t *testing.T) {
	in := []search.Candidate{
		{SourceName: "one", URL: "https://a.com/story", Score: 12},
		{SourceName: "two", URL: "https://A.com/story/?utm_campaign=x", Score: 20},
	}
	out := Dedupe(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 after dedup, got %d", len(out))
	}
	if out[0].Score != 20 || out[0].SourceName != "two" {
		t.Fatalf("expected the score-20 record, got %+v", out[0])
	}
	if out[0].URL != "https://A.com/story/?utm_campaign=x" {
		t.Fatalf("original url must be preserved, got %q", out[0].URL)
	}
}

func TestDedupe_TieKeepsFirst(t *testing.T) {
	in := []search.Candidate{
		{SourceName: "first", URL: "https://a.com/1", Score: 7},
		{SourceName: "second", URL: "https://a.com/1#x", Score: 7},
		{SourceName: "other", URL: "https://b.com/1", Score: 3},
	}
	out := Dedupe(in)
	if len(out) != 2 || out[0].SourceName != "first" || out[1].SourceName != "other" {
		t.Fatalf("unexpected: %+v", out)
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	in := []search.Candidate{
		{Title: "Alpha story", URL: "https://a.com/1", Score: 5},
		{Title: "Alpha story", URL: "https://mirror.com/1", Score: 9},
		{Title: "Beta", URL: "https://a.com/1/", Score: 8},
		{Title: "Gamma", URL: "https://c.com/g", Score: 0},
		{Title: "Gamma", URL: "https://c.com/g?utm_term=z", Score: 1},
	}
	for name, fn := range map[string]func([]search.Candidate) []search.Candidate{
		"url":   Dedupe,
		"title": DedupeTitles,
	} {
		once := fn(in)
		twice := fn(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("%s: not idempotent:\n%+v\n%+v", name, once, twice)
		}
		seen := map[string]bool{}
		for _, c := range once {
			k := Key(c.URL)
			if seen[k] {
				t.Fatalf("%s: duplicate key %s", name, k)
			}
			seen[k] = true
		}
	}
}

func TestDedupeTitles_MergesSyndicatedCopies(t *testing.T) {
	in := []search.Candidate{
		{Title: "Markets rally, again!", URL: "https://a.com/m", Score: 4},
		{Title: "markets rally again", URL: "https://b.com/m", Score: 11},
		{Title: "Unrelated", URL: "https://c.com/u", Score: 2},
	}
	out := DedupeTitles(in)
	if len(out) != 2 {
		t.Fatalf("expected 2, got %+v", out)
	}
	if out[0].URL != "https://b.com/m" || out[0].Score != 11 {
		t.Fatalf("expected higher-scored copy, got %+v", out[0])
	}
}
