// Package selecter ranks candidates and picks the few worth reading in full.
package selecter

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gonews/internal/aggregate"
	"github.com/hyperifyio/gonews/internal/llm"
	"github.com/hyperifyio/gonews/internal/search"
)

// DefaultPick is the number of URLs picked when Picker.K is not positive.
const DefaultPick = 3

// maxOffered bounds how many ranked candidates are shown to the model.
const maxOffered = 15

// Picker chooses the most relevant URLs among ranked candidates through the
// completion service, falling back to the top K by score.
type Picker struct {
	LLM *llm.Completer
	K   int
}

const pickSystem = "You select the most relevant news articles for a search query. " +
	"Respond with a JSON array of URLs copied exactly from the list, most relevant first. No commentary."

// Pick returns up to K URLs from ranked. Every URL returned by the model is
// checked against the candidate set; URLs not offered are discarded. When the
// model fails or returns nothing valid, the top K ranked URLs are returned.
func (p *Picker) Pick(ctx context.Context, query string, ranked []search.Candidate) []string {
	k := p.K
	if k <= 0 {
		k = DefaultPick
	}
	if len(ranked) == 0 {
		return nil
	}
	offered := ranked
	if len(offered) > maxOffered {
		offered = offered[:maxOffered]
	}

	if picked := p.ask(ctx, query, offered, k); len(picked) > 0 {
		return picked
	}
	return TopURLs(ranked, k)
}

func (p *Picker) ask(ctx context.Context, query string, offered []search.Candidate, k int) []string {
	if p.LLM == nil {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\nPick up to %d URLs.\n\n", query, k)
	byKey := make(map[string]string, len(offered))
	for i, c := range offered {
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, c.Title, c.URL, c.Description)
		byKey[aggregate.Key(c.URL)] = c.URL
	}

	parsed := p.LLM.Ask(ctx, "pick", pickSystem, b.String())
	var urls []string
	switch parsed.Kind {
	case llm.StructuredJSON:
		urls, _ = parsed.StringList("urls", "best_urls", "selected")
	case llm.PlainText:
		urls = strings.Fields(parsed.Text)
	default:
		log.Debug().Err(parsed.Err).Msg("pick fell back to top ranked")
		return nil
	}

	seen := map[string]struct{}{}
	out := make([]string, 0, k)
	for _, u := range urls {
		orig, ok := byKey[aggregate.Key(strings.Trim(u, "<>\"',"))]
		if !ok {
			continue
		}
		if _, dup := seen[orig]; dup {
			continue
		}
		seen[orig] = struct{}{}
		out = append(out, orig)
		if len(out) >= k {
			break
		}
	}
	if len(out) == 0 {
		log.Debug().Int("returned", len(urls)).Msg("pick returned no known urls")
	}
	return out
}

// TopURLs returns the URLs of the first k candidates.
func TopURLs(ranked []search.Candidate, k int) []string {
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]string, 0, k)
	for _, c := range ranked[:k] {
		out = append(out, c.URL)
	}
	return out
}
