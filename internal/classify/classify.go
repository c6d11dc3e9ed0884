// Package classify maps a free-text query to one of a fixed set of news
// categories.
package classify

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gonews/internal/llm"
)

// Category is a news category label.
type Category string

const (
	General       Category = "general"
	Technology    Category = "technology"
	Business      Category = "business"
	Sports        Category = "sports"
	Science       Category = "science"
	Entertainment Category = "entertainment"
	Health        Category = "health"
	Politics      Category = "politics"
)

// AllCategories returns all valid categories in canonical order.
func AllCategories() []Category {
	return []Category{General, Technology, Business, Sports, Science, Entertainment, Health, Politics}
}

// Aliases maps common alternative labels to categories.
var Aliases = map[string]Category{
	"tech":       Technology,
	"it":         Technology,
	"computing":  Technology,
	"finance":    Business,
	"economy":    Business,
	"markets":    Business,
	"sport":      Sports,
	"athletics":  Sports,
	"research":   Science,
	"space":      Science,
	"culture":    Entertainment,
	"movies":     Entertainment,
	"music":      Entertainment,
	"medicine":   Health,
	"wellness":   Health,
	"government": Politics,
	"elections":  Politics,
	"world":      General,
	"news":       General,
}

// Resolve maps a label or alias to a Category.
func Resolve(label string) (Category, error) {
	l := strings.ToLower(strings.TrimFunc(label, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}))
	for _, c := range AllCategories() {
		if string(c) == l {
			return c, nil
		}
	}
	if c, ok := Aliases[l]; ok {
		return c, nil
	}
	return General, fmt.Errorf("unknown category %q", label)
}

// Classifier asks the completion service for a query's category.
type Classifier struct {
	LLM *llm.Completer
}

const classifySystem = "Classify a news search query into exactly one category: " +
	"general, technology, business, sports, science, entertainment, health, politics. " +
	`Respond with JSON {"category": "<label>"}.`

// Classify returns the category of query. Any failure, timeout or unknown
// label yields General.
func (c *Classifier) Classify(ctx context.Context, query string) Category {
	if c == nil || c.LLM == nil || strings.TrimSpace(query) == "" {
		return General
	}
	parsed := c.LLM.Ask(ctx, "classify", classifySystem, "Query: "+query)

	var label string
	switch parsed.Kind {
	case llm.StructuredJSON:
		var out struct {
			Category string `json:"category"`
		}
		if err := parsed.Decode(&out); err == nil {
			label = out.Category
		}
	case llm.PlainText:
		label = firstWord(parsed.Text)
	default:
		log.Debug().Err(parsed.Err).Str("query", query).Msg("classify fell back to general")
		return General
	}

	cat, err := Resolve(label)
	if err != nil {
		log.Debug().Str("label", label).Msg("classify returned unknown label")
		return General
	}
	return cat
}

func firstWord(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	if len(f) > 1 && strings.EqualFold(strings.TrimSuffix(f[0], ":"), "category") {
		return f[1]
	}
	return f[0]
}
