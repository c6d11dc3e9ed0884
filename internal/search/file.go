package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// readFile loads results from a local JSON file for offline use. The file is
// an array of objects: {"title": "...", "url": "...", "snippet": "..."}.
// Entries are kept when their title or snippet contains every query term.
func readFile(target, query string) ([]item, error) {
	path := target
	if u, err := url.Parse(target); err == nil && u.Scheme == "file" {
		path = u.Path
	} else if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("file source path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file source: %w", err)
	}
	var raw []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode file source: %w", err)
	}
	words := strings.Fields(strings.ToLower(query))
	out := make([]item, 0, len(raw))
	for _, r := range raw {
		if r.URL == "" || r.Title == "" {
			continue
		}
		hay := strings.ToLower(r.Title + " " + r.Snippet)
		match := true
		for _, w := range words {
			if !strings.Contains(hay, w) {
				match = false
				break
			}
		}
		if match {
			out = append(out, item{Title: r.Title, URL: r.URL, Description: r.Snippet})
		}
	}
	return out, nil
}
