package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLFor_EscapesQuery(t *testing.T) {
	d := Descriptor{URL: "https://example.com/search?q={query}"}
	assert.Equal(t, "https://example.com/search?q=election+results%26more", d.URLFor(" election results&more "))

	p := Descriptor{URL: "https://example.com/search/{query_path}"}
	assert.Equal(t, "https://example.com/search/election%20results", p.URLFor("election results"))
}

func TestDefaults_ParseAndValidate(t *testing.T) {
	list := Defaults()
	require.NotEmpty(t, list)
	names := map[string]bool{}
	for _, d := range list {
		assert.NotEmpty(t, d.Name)
		assert.NotEmpty(t, d.URL)
		assert.Contains(t, []string{KindHTML, KindRSS, KindSearxNG, KindFile}, d.Kind)
		assert.False(t, names[d.Name], "duplicate %s", d.Name)
		names[d.Name] = true
	}
}

func TestParse_DefaultsLabelsAndRejectsBadInput(t *testing.T) {
	list, err := Parse([]byte("sources:\n  - name: A\n    url: https://a.example/?q={query}\n"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, General, list[0].Category)
	assert.Equal(t, Global, list[0].Region)
	assert.Equal(t, KindHTML, list[0].Kind)

	_, err = Parse([]byte("sources: []\n"))
	assert.Error(t, err)
	_, err = Parse([]byte("sources:\n  - name: A\n"))
	assert.Error(t, err)
	_, err = Parse([]byte("sources:\n  - name: A\n    url: x\n  - name: A\n    url: y\n"))
	assert.Error(t, err)
	_, err = Parse([]byte("sources:\n  - name: A\n    url: x\n    kind: gopher\n"))
	assert.Error(t, err)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  - name: Feed\n    kind: RSS\n    category: Technology\n    url: https://f.example/rss?q={query}\n"), 0o644))
	list, err := Load(path)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, KindRSS, list[0].Kind)
	assert.Equal(t, "technology", list[0].Category)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	srcs := []Descriptor{
		{Name: "gen-global", Category: General, Region: Global},
		{Name: "tech-us", Category: "technology", Region: "US"},
		{Name: "sport-uk", Category: "sports", Region: "UK"},
		{Name: "gen-uk", Category: General, Region: "UK"},
	}
	names := func(ds []Descriptor) []string {
		var out []string
		for _, d := range ds {
			out = append(out, d.Name)
		}
		return out
	}

	assert.Equal(t, names(srcs), names(Filter(srcs, General, "")), "general is a no-op")
	assert.Equal(t, names(srcs), names(Filter(srcs, "", "")))
	assert.Equal(t, []string{"gen-global", "tech-us", "gen-uk"}, names(Filter(srcs, "technology", "")))
	assert.Equal(t, []string{"gen-global", "sport-uk", "gen-uk"}, names(Filter(srcs, "", "uk")))
	assert.Equal(t, []string{"gen-global", "tech-us"}, names(Filter(srcs, "technology", "US")))
}
