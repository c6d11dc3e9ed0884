package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// LoadEnvFiles reads KEY=VALUE pairs into the process environment.
func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
	t.Setenv("FOO", "")
	t.Setenv("BAR", "")

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "\n# sample dotenv file\nFOO=alpha\nBAR=beta\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	if err := LoadEnvFiles(envPath); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("FOO"); got != "alpha" {
		t.Fatalf("FOO=%q, want alpha", got)
	}
	if got := os.Getenv("BAR"); got != "beta" {
		t.Fatalf("BAR=%q, want beta", got)
	}
}

// Later files override earlier ones when loading multiple dotenv files.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	t.Setenv("K", "")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}
	if err := LoadEnvFiles(a, b); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("K"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
}

func TestLoadEnvFiles_MissingIsSkipped(t *testing.T) {
	if err := LoadEnvFiles(filepath.Join(t.TempDir(), "nope.env"), ""); err != nil {
		t.Fatalf("missing file should be skipped: %v", err)
	}
}

func TestApplyEnvToConfig_FillsUnset(t *testing.T) {
	t.Setenv("LLM_BASE_URL", "http://llm.local/v1")
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("READER_URL", "https://r.jina.ai/")
	t.Setenv("CACHE_CAPACITY", "7")
	t.Setenv("CACHE_TTL", "90")
	t.Setenv("DEEP_FETCH_DELAY", "500ms")
	t.Setenv("VERBOSE", "yes")

	cfg := Config{LLMModel: "flag-model"}
	ApplyEnvToConfig(&cfg)

	if cfg.LLMBaseURL != "http://llm.local/v1" || cfg.ReaderURL != "https://r.jina.ai/" {
		t.Fatalf("strings not applied: %+v", cfg)
	}
	if cfg.LLMModel != "flag-model" {
		t.Fatalf("explicit value overwritten: %q", cfg.LLMModel)
	}
	if cfg.CacheCapacity != 7 || cfg.CacheTTL != 90*time.Second || cfg.DeepFetchDelay != 500*time.Millisecond {
		t.Fatalf("numbers not applied: %+v", cfg)
	}
	if !cfg.Verbose {
		t.Fatalf("verbose not applied")
	}
}

func TestApplyEnvOverrides_Wins(t *testing.T) {
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("CACHE_CAPACITY", "not-a-number")
	cfg := Config{LLMModel: "file-model", CacheCapacity: 3}
	ApplyEnvOverrides(&cfg)
	if cfg.LLMModel != "env-model" {
		t.Fatalf("env should override, got %q", cfg.LLMModel)
	}
	if cfg.CacheCapacity != 3 {
		t.Fatalf("invalid env value must be ignored, got %d", cfg.CacheCapacity)
	}
}

func TestParseBool(t *testing.T) {
	cases := map[string][2]bool{
		"1": {true, true}, "TRUE": {true, true}, " on ": {true, true},
		"0": {false, true}, "no": {false, true},
		"": {false, false}, "maybe": {false, false},
	}
	for in, want := range cases {
		v, ok := ParseBool(in)
		if v != want[0] || ok != want[1] {
			t.Fatalf("ParseBool(%q)=%v,%v want %v,%v", in, v, ok, want[0], want[1])
		}
	}
}
