package search

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// articleContainers are the ancestors searched for a description paragraph.
const articleContainers = "article, li, [class*=story], [class*=card], [class*=result], [class*=teaser], [class*=item]"

// parseHTML scans anchors in document order, up to MaxScan, and resolves
// them against the page URL.
func (f *Fetcher) parseHTML(pageURL string, body []byte) ([]item, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	max := f.MaxScan
	if max <= 0 {
		max = DefaultMaxScan
	}

	var items []item
	doc.Find("a[href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= max {
			return false
		}
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(u)
		resolved.Fragment = ""
		title := collapse(s.Text())
		if title == "" {
			title = collapse(s.AttrOr("title", s.AttrOr("aria-label", "")))
		}
		items = append(items, item{
			Title:       title,
			URL:         resolved.String(),
			Description: describe(s, title),
		})
		return true
	})
	return items, nil
}

// describe returns the first non-empty paragraph of the closest
// article-like ancestor that is not the anchor's own text.
func describe(a *goquery.Selection, title string) string {
	container := a.Closest(articleContainers)
	if container.Length() == 0 {
		return ""
	}
	var desc string
	container.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := collapse(p.Text())
		if text != "" && text != title {
			desc = text
			return false
		}
		return true
	})
	return desc
}
