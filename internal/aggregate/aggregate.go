// Package aggregate merges candidates from many sources into a unique set.
package aggregate

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/hyperifyio/gonews/internal/search"
)

var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"}

// Key returns the identity of a URL: lower-cased, without fragment, tracking
// parameters, default port or trailing slash.
func Key(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.ToLower(raw), "/")
	}
	normalizeURL(u)
	return strings.ToLower(u.String())
}

func normalizeURL(u *url.URL) {
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) || (u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Hostname()
	}
	q := u.Query()
	for k := range q {
		if strings.HasPrefix(strings.ToLower(k), "utm_") {
			q.Del(k)
		}
	}
	for _, p := range trackingParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
}

// Dedupe keeps one candidate per URL key. Of two candidates sharing a key
// only the strictly higher score survives; ties keep the first seen. Output
// follows first-seen key order and is meant to be re-sorted by the caller.
func Dedupe(cands []search.Candidate) []search.Candidate {
	return dedupeBy(cands, func(c search.Candidate) string { return Key(c.URL) })
}

// DedupeTitles additionally merges candidates whose normalized titles match,
// which catches syndicated copies of one story under different URLs, and then
// re-merges by URL.
func DedupeTitles(cands []search.Candidate) []search.Candidate {
	byURL := Dedupe(cands)
	byTitle := dedupeBy(byURL, func(c search.Candidate) string {
		if t := TitleKey(c.Title); t != "" {
			return "t:" + t
		}
		return "u:" + Key(c.URL)
	})
	return Dedupe(byTitle)
}

// TitleKey lower-cases a title and keeps only letters and digits separated
// by single spaces.
func TitleKey(title string) string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

func dedupeBy(cands []search.Candidate, key func(search.Candidate) string) []search.Candidate {
	index := make(map[string]int, len(cands))
	out := make([]search.Candidate, 0, len(cands))
	for _, c := range cands {
		k := key(c)
		if i, ok := index[k]; ok {
			if c.Score > out[i].Score {
				out[i] = c
			}
			continue
		}
		index[k] = len(out)
		out = append(out, c)
	}
	return out
}
