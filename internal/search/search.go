// Package search turns a source descriptor and a query into scored
// candidate results. One generic extraction routine exists per document
// format; sources differ only by their URL template and kind.
package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gonews/internal/fetch"
	"github.com/hyperifyio/gonews/internal/score"
	"github.com/hyperifyio/gonews/internal/source"
)

// Candidate is a single extracted result from one source.
type Candidate struct {
	SourceName  string `json:"source"`
	Category    string `json:"category"`
	Region      string `json:"region"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
}

// Getter is the HTTP collaborator used by the Fetcher. fetch.Client
// satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Observer is notified once per source fetch with its outcome ("ok",
// "empty", "error", "timeout") and the number of candidates produced.
type Observer func(sourceName, outcome string, candidates int, elapsed time.Duration)

const (
	// DefaultMaxScan caps the anchors inspected per HTML document.
	DefaultMaxScan = 80
	// DefaultMinTextLen is the shortest accepted link text, in runes.
	DefaultMinTextLen = 12
	// DefaultTimeout bounds a single source fetch.
	DefaultTimeout = 8 * time.Second
	// MaxDescriptionLen caps candidate descriptions, in runes.
	MaxDescriptionLen = 300
)

// DefaultDenylist matches URLs that never point at articles.
var DefaultDenylist = []string{
	`^(mailto|javascript|tel):`,
	`(?i)//([a-z0-9-]+\.)*(facebook\.com|twitter\.com|x\.com|instagram\.com|linkedin\.com|pinterest\.com|tiktok\.com|youtube\.com|youtu\.be|reddit\.com|whatsapp\.com|wa\.me|t\.co|t\.me)(:\d+)?([/?#]|$)`,
	`(?i)[/?&](page|p)[=/]\d+`,
	`(?i)/(tag|tags|topic|topics|category|categories|author|authors|section)/`,
	`(?i)/(login|signin|sign-in|signup|register|account|subscribe|subscription|newsletter|share|profile|privacy|terms|cookies?|contact|about|help|search)(/|\?|$)`,
	`(?i)/(intent|sharer|share\.php)`,
}

// Fetcher performs one bounded-time fetch per source and extracts scored
// candidates. The zero value is not usable; construct with NewFetcher.
type Fetcher struct {
	HTTP       Getter
	Scorer     *score.Scorer
	Timeout    time.Duration
	MaxScan    int
	MinTextLen int
	Observe    Observer

	deny []*regexp.Regexp
}

// NewFetcher returns a Fetcher using DefaultDenylist plus any extra
// patterns. It fails only when a pattern does not compile.
func NewFetcher(hc Getter, scorer *score.Scorer, extraDeny ...string) (*Fetcher, error) {
	if hc == nil {
		hc = &fetch.Client{MaxAttempts: 1}
	}
	f := &Fetcher{
		HTTP:       hc,
		Scorer:     scorer,
		Timeout:    DefaultTimeout,
		MaxScan:    DefaultMaxScan,
		MinTextLen: DefaultMinTextLen,
	}
	for _, p := range append(append([]string{}, DefaultDenylist...), extraDeny...) {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("denylist pattern %q: %w", p, err)
		}
		f.deny = append(f.deny, re)
	}
	return f, nil
}

// Fetch returns the candidates of one source for query. It never fails: any
// transport, status, parse or timeout error yields an empty slice.
func (f *Fetcher) Fetch(ctx context.Context, desc source.Descriptor, query string) (out []Candidate) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("source", desc.Name).Interface("panic", r).Msg("source extraction panicked")
			out, outcome = nil, "error"
		}
		if outcome == "ok" && len(out) == 0 {
			outcome = "empty"
		}
		if f.Observe != nil {
			f.Observe(desc.Name, outcome, len(out), time.Since(start))
		}
	}()

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := desc.URLFor(query)
	raw, err := f.extract(ctx, desc, target, query)
	if err != nil {
		outcome = "error"
		if ctx.Err() != nil {
			outcome = "timeout"
		}
		log.Debug().Err(err).Str("source", desc.Name).Str("url", target).Msg("source fetch failed")
		return nil
	}

	terms := score.Terms(query)
	seen := make(map[string]struct{}, len(raw))
	out = make([]Candidate, 0, len(raw))
	for _, r := range raw {
		if !f.accept(r.Title, r.URL) {
			continue
		}
		if _, dup := seen[r.URL]; dup {
			continue
		}
		seen[r.URL] = struct{}{}
		descText := truncate(collapse(r.Description), MaxDescriptionLen)
		if descText == "" {
			descText = truncate(r.Title, MaxDescriptionLen)
		}
		out = append(out, Candidate{
			SourceName:  desc.Name,
			Category:    desc.Category,
			Region:      desc.Region,
			Title:       r.Title,
			Description: descText,
			URL:         r.URL,
			Score:       f.Scorer.Score(r.Title, descText, r.URL, terms),
		})
	}
	log.Debug().Str("source", desc.Name).Int("candidates", len(out)).Dur("elapsed", time.Since(start)).Msg("source fetched")
	return out
}

// item is the format-neutral record every extraction routine produces.
type item struct {
	Title       string
	URL         string
	Description string
}

func (f *Fetcher) extract(ctx context.Context, desc source.Descriptor, target, query string) ([]item, error) {
	if desc.KindOrDefault() == source.KindFile {
		return readFile(target, query)
	}
	body, _, err := f.HTTP.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	switch desc.KindOrDefault() {
	case source.KindRSS:
		return parseFeed(ctx, body)
	case source.KindSearxNG:
		return parseSearxNG(body)
	default:
		return f.parseHTML(target, body)
	}
}

func (f *Fetcher) accept(title, rawURL string) bool {
	min := f.MinTextLen
	if min <= 0 {
		min = DefaultMinTextLen
	}
	if len([]rune(strings.TrimSpace(title))) < min {
		return false
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return false
	}
	for _, re := range f.deny {
		if re.MatchString(rawURL) {
			return false
		}
	}
	return true
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return strings.TrimSpace(string(runes[:n-3])) + "..."
}
