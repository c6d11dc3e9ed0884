package reader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/gonews/internal/fetch"
)

func TestRead_DirectHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Vote count</title><meta name="author" content="A. Writer"></head>
<body><nav>Menu</nav><article><p>Counting resumed at dawn.</p></article></body></html>`))
	}))
	defer srv.Close()

	r := &Reader{HTTP: &fetch.Client{}}
	a, err := r.Read(context.Background(), srv.URL+"/story")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/story", a.URL)
	assert.Equal(t, "Vote count", a.Title)
	assert.Equal(t, "A. Writer", a.Author)
	assert.Equal(t, "127.0.0.1", a.SiteName)
	assert.Equal(t, "Counting resumed at dawn.", a.FullText)
	assert.Empty(t, a.Error)
}

func TestRead_RemoteReader(t *testing.T) {
	var requested string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Title: Storm warning\nURL Source: https://news.example/storm\nPublished Time: 2024-11-06\n\nMarkdown Content:\nHigh winds expected.\nStay indoors.\n"))
	}))
	defer srv.Close()

	r := &Reader{HTTP: &fetch.Client{}, BaseURL: srv.URL + "/"}
	a, err := r.Read(context.Background(), "https://news.example/storm")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(requested, "/news.example/storm"), requested)
	assert.Equal(t, "https://news.example/storm", a.URL)
	assert.Equal(t, "Storm warning", a.Title)
	assert.Equal(t, "news.example", a.SiteName)
	assert.Equal(t, "High winds expected.\nStay indoors.", a.FullText)
}

func TestRead_FailuresRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body><nav>only nav</nav></body></html>"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := &Reader{HTTP: &fetch.Client{}}
	a, err := r.Read(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, a.Error, "404")

	a, err = r.Read(context.Background(), srv.URL+"/empty")
	assert.ErrorIs(t, err, ErrNoText)
	assert.Equal(t, ErrNoText.Error(), a.Error)

	var nilReader *Reader
	_, err = nilReader.Read(context.Background(), "https://x.example")
	assert.Error(t, err)
}

func TestRead_ClipsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("é", 50)))
	}))
	defer srv.Close()
	r := &Reader{HTTP: &fetch.Client{}, MaxChars: 10}
	a, err := r.Read(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 10), a.FullText)
}
