package selecter

import (
	"net/url"
	"sort"
	"strings"

	"github.com/hyperifyio/gonews/internal/search"
)

// DefaultLimit is the number of ranked results kept when Options.Limit is
// not positive.
const DefaultLimit = 20

// Options configures ranking constraints.
type Options struct {
	Limit int
	// MinScore drops candidates scoring below it, unless that would drop
	// every candidate.
	MinScore int
	// PerDomain caps results per host. Zero disables the cap.
	PerDomain int
}

// Rank orders candidates by score (stable, descending), applies the score
// threshold and per-domain cap, and slices to Limit. When the threshold
// filters out every candidate the unfiltered top Limit are returned instead,
// so a non-empty input never ranks to nothing.
func Rank(cands []search.Candidate, opt Options) []search.Candidate {
	if opt.Limit <= 0 {
		opt.Limit = DefaultLimit
	}
	sorted := make([]search.Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	filtered := make([]search.Candidate, 0, len(sorted))
	for _, c := range sorted {
		if c.Score >= opt.MinScore {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		filtered = sorted
	}

	domainCounts := map[string]int{}
	out := make([]search.Candidate, 0, min(opt.Limit, len(filtered)))
	for _, c := range filtered {
		if opt.PerDomain > 0 {
			host := hostOf(c.URL)
			if domainCounts[host] >= opt.PerDomain {
				continue
			}
			domainCounts[host]++
		}
		out = append(out, c)
		if len(out) >= opt.Limit {
			break
		}
	}
	return out
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
