package search

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// parseFeed decodes an RSS or Atom document.
func parseFeed(ctx context.Context, body []byte) ([]item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	items := make([]item, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		desc := it.Description
		if desc == "" {
			desc = it.Content
		}
		items = append(items, item{
			Title:       collapse(stripHTML(it.Title)),
			URL:         strings.TrimSpace(it.Link),
			Description: stripHTML(desc),
		})
	}
	return items, nil
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return collapse(b.String())
}
