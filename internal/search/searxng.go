package search

import (
	"encoding/json"
	"fmt"
	"strings"
)

type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// parseSearxNG decodes the JSON body of a SearxNG /search?format=json call.
// Descriptors point their URL template at such an endpoint, for example
// http://localhost:8888/search?q={query}&format=json&categories=news.
func parseSearxNG(body []byte) ([]item, error) {
	var sr searxResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("decode searxng: %w", err)
	}
	out := make([]item, 0, len(sr.Results))
	for _, r := range sr.Results {
		if r.URL == "" || r.Title == "" {
			continue
		}
		out = append(out, item{
			Title:       strings.TrimSpace(r.Title),
			URL:         strings.TrimSpace(r.URL),
			Description: strings.TrimSpace(r.Content),
		})
	}
	return out, nil
}
