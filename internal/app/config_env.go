package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	setString(&cfg.Addr, "GONEWS_ADDR")
	setString(&cfg.SourcesFile, "SOURCES_FILE")
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY")
	setString(&cfg.ReaderURL, "READER_URL")

	if cfg.CacheCapacity == 0 {
		if n, ok := envInt("CACHE_CAPACITY"); ok {
			cfg.CacheCapacity = n
		}
	}
	if cfg.CacheTTL == 0 {
		if d, ok := envDuration("CACHE_TTL"); ok {
			cfg.CacheTTL = d
		}
	}
	if cfg.DeepFetchDelay == 0 {
		if d, ok := envDuration("DEEP_FETCH_DELAY"); ok {
			cfg.DeepFetchDelay = d
		}
	}
	if !cfg.Verbose {
		if b, ok := envBool("VERBOSE"); ok {
			cfg.Verbose = b
		}
	}
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values coming from a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&cfg.Addr, "GONEWS_ADDR")
	override(&cfg.SourcesFile, "SOURCES_FILE")
	override(&cfg.LLMBaseURL, "LLM_BASE_URL")
	override(&cfg.LLMModel, "LLM_MODEL")
	override(&cfg.LLMAPIKey, "LLM_API_KEY")
	override(&cfg.ReaderURL, "READER_URL")

	if n, ok := envInt("CACHE_CAPACITY"); ok {
		cfg.CacheCapacity = n
	}
	if d, ok := envDuration("CACHE_TTL"); ok {
		cfg.CacheTTL = d
	}
	if d, ok := envDuration("DEEP_FETCH_DELAY"); ok {
		cfg.DeepFetchDelay = d
	}
	if b, ok := envBool("VERBOSE"); ok {
		cfg.Verbose = b
	}
}

func envInt(key string) (int, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// envDuration accepts Go durations ("90s") or bare seconds ("90").
func envDuration(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, true
	}
	return 0, false
}

func envBool(key string) (bool, bool) {
	return ParseBool(os.Getenv(key))
}

// ParseBool interprets boolean-ish strings: 1/true/yes/on and 0/false/no/off.
// The second result is false for empty or unrecognized input.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on", "y":
		return true, true
	case "0", "false", "no", "off", "n":
		return false, true
	}
	return false, false
}
