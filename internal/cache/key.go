package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// KeyFor builds a stable cache key from a query and optional filters. The
// query is NFKC-normalized, case folded and whitespace collapsed so trivially
// different spellings of the same request share an entry. Filters are
// compared after trimming and lower-casing; their order is significant.
func KeyFor(query string, filters ...string) string {
	var b strings.Builder
	b.WriteString(NormalizeQuery(query))
	for _, f := range filters {
		b.WriteString("\x1f")
		b.WriteString(strings.ToLower(strings.TrimSpace(f)))
	}
	h := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(h[:])
}

// NormalizeQuery returns the canonical form of a query used for keys.
func NormalizeQuery(q string) string {
	q = norm.NFKC.String(q)
	q = cases.Fold().String(q)
	return strings.Join(strings.Fields(q), " ")
}
