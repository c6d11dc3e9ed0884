package selecter

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/hyperifyio/gonews/internal/llm"
	"github.com/hyperifyio/gonews/internal/llm/llmtest"
	"github.com/hyperifyio/gonews/internal/search"
)

func cands(scores ...int) []search.Candidate {
	out := make([]search.Candidate, len(scores))
	for i, s := range scores {
		out[i] = search.Candidate{Title: fmt.Sprintf("t%d", i), URL: fmt.Sprintf("https://h%d.com/%d", i, i), Score: s}
	}
	return out
}

func titles(cs []search.Candidate) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.Title)
	}
	return out
}

func TestRank_SortsStableAndThresholds(t *testing.T) {
	in := cands(5, 30, 5, 1, 30)
	out := Rank(in, Options{Limit: 10, MinScore: 5})
	want := []string{"t1", "t4", "t0", "t2"}
	if !reflect.DeepEqual(titles(out), want) {
		t.Fatalf("got %v want %v", titles(out), want)
	}
	if in[0].Title != "t0" || in[1].Title != "t1" {
		t.Fatal("input slice was reordered")
	}
}

func TestRank_FallbackWhenThresholdEmptiesSet(t *testing.T) {
	out := Rank(cands(0, 2, 1), Options{Limit: 2, MinScore: 10})
	if !reflect.DeepEqual(titles(out), []string{"t1", "t2"}) {
		t.Fatalf("expected unfiltered top-N, got %v", titles(out))
	}
	if got := Rank(nil, Options{MinScore: 10}); len(got) != 0 {
		t.Fatalf("empty input must rank to empty, got %v", got)
	}
}

func TestRank_DefaultLimit(t *testing.T) {
	scores := make([]int, 50)
	if got := Rank(cands(scores...), Options{}); len(got) != DefaultLimit {
		t.Fatalf("expected %d, got %d", DefaultLimit, len(got))
	}
}

func TestRank_PerDomainCap(t *testing.T) {
	in := []search.Candidate{
		{Title: "a1", URL: "https://a.com/1", Score: 9},
		{Title: "a2", URL: "https://www.a.com/2", Score: 8},
		{Title: "a3", URL: "https://a.com/3", Score: 7},
		{Title: "b1", URL: "https://b.com/1", Score: 6},
	}
	out := Rank(in, Options{Limit: 10, PerDomain: 2})
	if !reflect.DeepEqual(titles(out), []string{"a1", "a2", "b1"}) {
		t.Fatalf("per-domain cap not applied: %v", titles(out))
	}
}

func TestPick_ValidatesAgainstCandidates(t *testing.T) {
	ranked := cands(9, 8, 7, 6)
	stub := llmtest.Static(`{"urls": ["https://invented.example/x", "` + ranked[2].URL + `", "` + ranked[2].URL + `#dup", "` + ranked[0].URL + `"]}`)
	p := &Picker{LLM: &llm.Completer{Client: stub, Model: "m"}, K: 3}
	got := p.Pick(context.Background(), "q", ranked)
	want := []string{ranked[2].URL, ranked[0].URL}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestPick_FallsBackToTopK(t *testing.T) {
	ranked := cands(9, 8, 7, 6)
	want := []string{ranked[0].URL, ranked[1].URL, ranked[2].URL}

	failing := llmtest.New(func(context.Context, string, string) (string, error) { return "", errors.New("down") })
	p := &Picker{LLM: &llm.Completer{Client: failing, Model: "m"}}
	if got := p.Pick(context.Background(), "q", ranked); !reflect.DeepEqual(got, want) {
		t.Fatalf("error fallback: got %v", got)
	}

	hallucinating := llmtest.Static(`["https://nowhere.example/1"]`)
	p = &Picker{LLM: &llm.Completer{Client: hallucinating, Model: "m"}}
	if got := p.Pick(context.Background(), "q", ranked); !reflect.DeepEqual(got, want) {
		t.Fatalf("hallucination fallback: got %v", got)
	}

	p = &Picker{}
	if got := p.Pick(context.Background(), "q", ranked[:2]); !reflect.DeepEqual(got, want[:2]) {
		t.Fatalf("unconfigured fallback: got %v", got)
	}
	if got := p.Pick(context.Background(), "q", nil); got != nil {
		t.Fatalf("no candidates: got %v", got)
	}
}

func TestPick_PlainTextURLs(t *testing.T) {
	ranked := cands(3, 2)
	stub := llmtest.Static("Best picks:\n" + ranked[1].URL + "\n")
	p := &Picker{LLM: &llm.Completer{Client: stub, Model: "m"}, K: 2}
	if got := p.Pick(context.Background(), "q", ranked); !reflect.DeepEqual(got, []string{ranked[1].URL}) {
		t.Fatalf("got %v", got)
	}
}
