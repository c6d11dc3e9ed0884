// Package source describes the content providers queried by the aggregator.
package source

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Kinds of document a source returns. Each kind has one generic extraction
// routine in the search package.
const (
	KindHTML    = "html"
	KindRSS     = "rss"
	KindSearxNG = "searxng"
	KindFile    = "file"
)

// General is the category label of sources that match every query.
const General = "general"

// Global is the region label of sources that pass every region filter.
const Global = "Global"

// Descriptor is an immutable description of one content source. URL is a
// template: {query} is replaced by the query-escaped search text and
// {query_path} by its path-escaped form.
type Descriptor struct {
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category" json:"category"`
	Region   string `yaml:"region" json:"region"`
	Kind     string `yaml:"kind,omitempty" json:"kind"`
	URL      string `yaml:"url" json:"url"`
}

// URLFor renders the descriptor's URL template for query.
func (d Descriptor) URLFor(query string) string {
	q := strings.TrimSpace(query)
	r := strings.NewReplacer(
		"{query}", url.QueryEscape(q),
		"{query_path}", url.PathEscape(q),
	)
	return r.Replace(d.URL)
}

// KindOrDefault returns Kind, defaulting to KindHTML.
func (d Descriptor) KindOrDefault() string {
	k := strings.ToLower(strings.TrimSpace(d.Kind))
	if k == "" {
		return KindHTML
	}
	return k
}

type file struct {
	Sources []Descriptor `yaml:"sources"`
}

//go:embed sources.yaml
var defaultSources []byte

// Defaults returns the built-in source list.
func Defaults() []Descriptor {
	list, err := Parse(defaultSources)
	if err != nil {
		panic(fmt.Sprintf("embedded sources.yaml: %v", err))
	}
	return list
}

// Load reads a YAML source list from path.
func Load(path string) ([]Descriptor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}
	list, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// Parse decodes and validates a YAML source list. Missing category and
// region labels default to General and Global.
func Parse(data []byte) ([]Descriptor, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}
	if len(f.Sources) == 0 {
		return nil, errors.New("no sources defined")
	}
	seen := map[string]struct{}{}
	out := make([]Descriptor, 0, len(f.Sources))
	for i, d := range f.Sources {
		d.Name = strings.TrimSpace(d.Name)
		d.URL = strings.TrimSpace(d.URL)
		if d.Name == "" || d.URL == "" {
			return nil, fmt.Errorf("source %d: name and url are required", i)
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("source %q defined twice", d.Name)
		}
		seen[d.Name] = struct{}{}
		d.Category = strings.ToLower(strings.TrimSpace(d.Category))
		if d.Category == "" {
			d.Category = General
		}
		d.Region = strings.TrimSpace(d.Region)
		if d.Region == "" {
			d.Region = Global
		}
		switch d.KindOrDefault() {
		case KindHTML, KindRSS, KindSearxNG, KindFile:
			d.Kind = d.KindOrDefault()
		default:
			return nil, fmt.Errorf("source %q: unknown kind %q", d.Name, d.Kind)
		}
		out = append(out, d)
	}
	return out, nil
}

// Filter keeps sources whose category is category or General and whose
// region is region or Global. An empty or General category and an empty
// region do not filter.
func Filter(srcs []Descriptor, category, region string) []Descriptor {
	out := make([]Descriptor, 0, len(srcs))
	for _, s := range srcs {
		if MatchesCategory(s, category) && MatchesRegion(s, region) {
			out = append(out, s)
		}
	}
	return out
}

// MatchesCategory reports whether s passes the category filter.
func MatchesCategory(s Descriptor, category string) bool {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" || c == General {
		return true
	}
	return s.Category == c || s.Category == General
}

// MatchesRegion reports whether s passes the region filter.
func MatchesRegion(s Descriptor, region string) bool {
	r := strings.TrimSpace(region)
	if r == "" {
		return true
	}
	return strings.EqualFold(s.Region, r) || strings.EqualFold(s.Region, Global)
}
