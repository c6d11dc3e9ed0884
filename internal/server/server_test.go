package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/gonews/internal/app"
	"github.com/hyperifyio/gonews/internal/search"
	"github.com/hyperifyio/gonews/internal/source"
)

type fakeApp struct {
	last   app.Request
	resp   *app.Response
	err    error
	panics bool
}

func (f *fakeApp) Search(_ context.Context, req app.Request) (*app.Response, error) {
	f.last = req
	if f.panics {
		panic("boom")
	}
	return f.resp, f.err
}

func (f *fakeApp) Sources() []source.Descriptor {
	return []source.Descriptor{{Name: "BBC", Category: "general", Region: "UK", Kind: source.KindHTML}}
}

func okResponse(cached bool) *app.Response {
	return &app.Response{
		Result: app.Result{
			Success: true, Query: "go", Category: "general", Total: 1, Count: 1,
			Results: []search.Candidate{{SourceName: "BBC", Title: "Go news", URL: "https://bbc.example/go", Score: 25}},
		},
		Cached:    cached,
		RequestID: "req-1",
		TTL:       30 * time.Minute,
	}
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSearch_ParamsAndHeaders(t *testing.T) {
	f := &fakeApp{resp: okResponse(false)}
	h := New(f, ":0").Handler()

	rec := do(t, h, "/api/search?q=go+lang&limit=5&category=tech&region=UK&ttl=60&clean=yes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "public, max-age=1800", rec.Header().Get("Cache-Control"))
	assert.Equal(t, app.Request{Query: "go lang", Limit: 5, Category: "tech", Region: "UK", TTL: time.Minute, Summarize: true}, f.last)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["cached"])
	assert.Len(t, body["results"], 1)
}

func TestSearch_CacheHitHeader(t *testing.T) {
	resp := okResponse(true)
	resp.TTL = 12*time.Minute + 30*time.Second
	h := New(&fakeApp{resp: resp}, ":0").Handler()
	rec := do(t, h, "/api/search?q=go")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "public, max-age=750", rec.Header().Get("Cache-Control"))
}

func TestSearch_LimitIsCapped(t *testing.T) {
	f := &fakeApp{resp: okResponse(false)}
	do(t, New(f, ":0").Handler(), "/api/search?q=go&limit=5000&summarize=0")
	assert.Equal(t, MaxLimit, f.last.Limit)
	assert.False(t, f.last.Summarize)
}

func TestSearch_BadRequests(t *testing.T) {
	h := New(&fakeApp{resp: okResponse(false)}, ":0").Handler()
	for _, target := range []string{
		"/api/search",
		"/api/search?q=%20%20",
		"/api/search?q=go&limit=abc",
		"/api/search?q=go&limit=-1",
		"/api/search?q=go&ttl=soon",
	} {
		rec := do(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		errorText(t, rec)
	}
}

func errorText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	require.False(t, e.Success)
	require.NotEmpty(t, e.Error)
	return e.Error
}

func TestSearch_InternalErrors(t *testing.T) {
	rec := do(t, New(&fakeApp{err: errors.New("db gone")}, ":0").Handler(), "/api/search?q=go")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"internal server error"}`, rec.Body.String())

	rec = do(t, New(&fakeApp{panics: true}, ":0").Handler(), "/api/search?q=go")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"internal server error"}`, rec.Body.String())
}

func TestSources(t *testing.T) {
	rec := do(t, New(&fakeApp{}, ":0").Handler(), "/api/sources")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"count":1,"sources":[{"name":"BBC","category":"general","region":"UK","kind":"html"}]}`, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	h := New(&fakeApp{}, ":0").Handler()
	rec := do(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)

	rec = do(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	New(&fakeApp{}, ":0").Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/search?q=go", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
