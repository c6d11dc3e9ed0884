// Package summarize condenses deep-fetched articles into short factual
// points and merges the points of several articles into one summary.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gonews/internal/llm"
	"github.com/hyperifyio/gonews/internal/reader"
	"github.com/hyperifyio/gonews/internal/throttle"
)

const (
	// DefaultChunkSize bounds the text sent per completion call, in runes.
	DefaultChunkSize = 3000
	// DefaultMaxPoints caps the points gathered per article.
	DefaultMaxPoints = 50
	// DefaultMergePoints is the size of the unified summary.
	DefaultMergePoints = 5
	pointsPerChunk     = 3
	fallbackSentences  = 2
)

// Summarizer extracts points chunk by chunk through a throttled queue.
type Summarizer struct {
	LLM *llm.Completer
	// Queue paces the per-chunk calls. Nil runs them back to back.
	Queue     *throttle.Queue
	ChunkSize int
	MaxPoints int
}

const chunkSystem = "You extract facts from news articles. Return at most 3 short factual bullet points " +
	"from the given text as a JSON array of strings. No commentary."

// Summarize returns the normalized, de-duplicated points of article, at most
// MaxPoints. Chunks whose completion fails fall back to their first
// sentences, so any article with text yields points.
func (s *Summarizer) Summarize(ctx context.Context, article reader.Article, terms []string) []string {
	chunks := Chunk(article.FullText, s.chunkSize())
	if len(chunks) == 0 {
		return nil
	}
	max := s.MaxPoints
	if max <= 0 {
		max = DefaultMaxPoints
	}
	q := s.Queue
	if q == nil {
		q = throttle.Sequential(0)
	}

	var mu sync.Mutex
	var points []string
	seen := map[string]struct{}{}
	err := q.Run(ctx, len(chunks), func(ctx context.Context, i int) error {
		pts := s.chunkPoints(ctx, article.Title, chunks[i], terms)
		mu.Lock()
		defer mu.Unlock()
		for _, p := range pts {
			if len(points) >= max {
				break
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			points = append(points, p)
		}
		if len(points) >= max {
			return throttle.ErrStop
		}
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("url", article.URL).Int("points", len(points)).Msg("summarize stopped early")
	}
	return points
}

func (s *Summarizer) chunkSize() int {
	if s.ChunkSize > 0 {
		return s.ChunkSize
	}
	return DefaultChunkSize
}

func (s *Summarizer) chunkPoints(ctx context.Context, title, chunk string, terms []string) []string {
	var pts []string
	if s.LLM != nil {
		var b strings.Builder
		if title != "" {
			fmt.Fprintf(&b, "Article: %s\n", title)
		}
		if len(terms) > 0 {
			fmt.Fprintf(&b, "Focus on: %s\n", strings.Join(terms, ", "))
		}
		b.WriteString("\nText:\n")
		b.WriteString(chunk)
		pts = parsePoints(s.LLM.Ask(ctx, "summarize", chunkSystem, b.String()))
	}
	if len(pts) == 0 {
		pts = FirstSentences(chunk, fallbackSentences)
	}
	out := make([]string, 0, len(pts))
	for _, p := range pts {
		if n := NormalizePoint(p); n != "" {
			out = append(out, n)
		}
		if len(out) >= pointsPerChunk {
			break
		}
	}
	return out
}

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)

// parsePoints accepts a JSON array, an object with a "points" array, or
// bullet lines. Anything else yields nil.
func parsePoints(p llm.Parsed) []string {
	switch p.Kind {
	case llm.StructuredJSON:
		list, _ := p.StringList("points", "bullets", "summary")
		return list
	case llm.PlainText:
		var out []string
		for _, line := range strings.Split(p.Text, "\n") {
			if loc := bulletPrefix.FindStringIndex(line); loc != nil {
				out = append(out, line[loc[1]:])
			}
		}
		return out
	default:
		return nil
	}
}

var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// FirstSentences returns up to n leading sentences of text, split on a
// terminator followed by whitespace.
func FirstSentences(text string, n int) []string {
	text = strings.TrimSpace(text)
	var out []string
	for len(out) < n && text != "" {
		loc := sentenceEnd.FindStringIndex(text)
		if loc == nil {
			out = append(out, text)
			break
		}
		out = append(out, strings.TrimSpace(text[:loc[0]+1]))
		text = strings.TrimSpace(text[loc[1]:])
	}
	return out
}

// NormalizePoint collapses whitespace, drops list markers and strips a
// trailing period.
func NormalizePoint(p string) string {
	p = bulletPrefix.ReplaceAllString(p, "")
	p = strings.Join(strings.Fields(p), " ")
	return strings.TrimSpace(strings.TrimSuffix(p, "."))
}

const mergeSystem = "You merge bullet points from several news articles into a short unified summary. " +
	"Combine overlapping facts and drop repetition. Respond with a JSON array of strings. No commentary."

// Merge asks for at most max unified points covering points. On failure or a
// malformed answer the first max distinct points are used. The result is
// numbered "1. ...", "2. ...".
func (s *Summarizer) Merge(ctx context.Context, points []string, query string, max int) []string {
	if max <= 0 {
		max = DefaultMergePoints
	}
	if len(points) == 0 {
		return nil
	}
	var merged []string
	if s.LLM != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "Query: %s\nWrite at most %d points.\n\nPoints:\n", query, max)
		for i, p := range points {
			fmt.Fprintf(&b, "%d. %s\n", i+1, p)
		}
		merged = distinct(parsePoints(s.LLM.Ask(ctx, "merge", mergeSystem, b.String())), max)
		if len(merged) == 0 {
			log.Debug().Int("points", len(points)).Msg("merge fell back to leading points")
		}
	}
	if len(merged) == 0 {
		merged = distinct(points, max)
	}
	for i := range merged {
		merged[i] = fmt.Sprintf("%d. %s", i+1, merged[i])
	}
	return merged
}

func distinct(points []string, max int) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, max)
	for _, p := range points {
		n := NormalizePoint(p)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
		if len(out) >= max {
			break
		}
	}
	return out
}

// ErrNoPoints is returned by All when no article produced points.
var ErrNoPoints = errors.New("no points extracted")

// All summarizes each article in order, storing its points on the article,
// and returns the concatenated points.
func (s *Summarizer) All(ctx context.Context, articles []reader.Article, terms []string) ([]string, error) {
	var all []string
	for i := range articles {
		if ctx.Err() != nil {
			return all, ctx.Err()
		}
		if articles[i].Error != "" || articles[i].FullText == "" {
			continue
		}
		articles[i].Points = s.Summarize(ctx, articles[i], terms)
		all = append(all, articles[i].Points...)
	}
	if len(all) == 0 {
		return nil, ErrNoPoints
	}
	return all, nil
}
