// Package reader fetches full documents for the URLs picked for
// summarization.
package reader

import (
	"bufio"
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/hyperifyio/gonews/internal/extract"
)

// Article is one deep-fetched document.
type Article struct {
	URL      string   `json:"url"`
	Title    string   `json:"title,omitempty"`
	Author   string   `json:"author,omitempty"`
	SiteName string   `json:"site_name,omitempty"`
	FullText string   `json:"-"`
	Points   []string `json:"points,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Getter is the HTTP collaborator. fetch.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// ErrNoText is recorded when a page yields no readable text.
var ErrNoText = errors.New("no readable text")

// DefaultMaxChars caps the text kept per article.
const DefaultMaxChars = 20000

// Reader turns a URL into an Article, either by fetching and extracting the
// page directly or through a remote reader service that returns plain text.
type Reader struct {
	HTTP Getter
	// BaseURL, when set, is prefixed to the article URL, as with
	// https://r.jina.ai/. The service answers with "Title:" and
	// "URL Source:" header lines followed by the text. The requested URL
	// stays the article's identity.
	BaseURL   string
	Extractor extract.Extractor
	MaxChars  int
}

// Read fetches one article. Failures are recorded on the returned Article
// and also returned as an error.
func (r *Reader) Read(ctx context.Context, rawURL string) (Article, error) {
	a := Article{URL: rawURL}
	if r == nil || r.HTTP == nil {
		a.Error = "reader not configured"
		return a, errors.New(a.Error)
	}
	target := rawURL
	remote := strings.TrimSpace(r.BaseURL) != ""
	if remote {
		target = strings.TrimSpace(r.BaseURL) + rawURL
	}
	body, ct, err := r.HTTP.Get(ctx, target)
	if err != nil {
		a.Error = err.Error()
		return a, err
	}

	if remote || isPlainText(ct) {
		parseRemote(&a, string(body))
	} else {
		ex := r.Extractor
		if ex == nil {
			ex = extract.HeuristicExtractor{}
		}
		doc := ex.Extract(body)
		a.Title, a.Author, a.SiteName, a.FullText = doc.Title, doc.Author, doc.SiteName, doc.Text
	}
	if a.SiteName == "" {
		if u, err := url.Parse(rawURL); err == nil {
			a.SiteName = strings.TrimPrefix(u.Hostname(), "www.")
		}
	}
	a.FullText = clip(strings.TrimSpace(a.FullText), r.maxChars())
	if a.FullText == "" {
		a.Error = ErrNoText.Error()
		return a, ErrNoText
	}
	return a, nil
}

func (r *Reader) maxChars() int {
	if r.MaxChars > 0 {
		return r.MaxChars
	}
	return DefaultMaxChars
}

func isPlainText(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.HasPrefix(ct, "text/plain") || strings.HasPrefix(ct, "text/markdown")
}

// parseRemote reads the reader service's header lines until the first
// blank line or content marker; everything after is the text.
func parseRemote(a *Article, body string) {
	sc := bufio.NewScanner(strings.NewReader(body))
	sc.Buffer(make([]byte, 64*1024), 4<<20)
	var text strings.Builder
	inHeader := true
	for sc.Scan() {
		line := sc.Text()
		if inHeader {
			switch {
			case strings.HasPrefix(line, "Title:"):
				a.Title = strings.TrimSpace(strings.TrimPrefix(line, "Title:"))
				continue
			case strings.HasPrefix(line, "URL Source:"), strings.HasPrefix(line, "Published Time:"):
				continue
			case strings.HasPrefix(line, "Markdown Content:"):
				inHeader = false
				continue
			case strings.TrimSpace(line) == "":
				continue
			}
			inHeader = false
		}
		text.WriteString(line)
		text.WriteByte('\n')
	}
	a.FullText = text.String()
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
