package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags and env.
type FileConfig struct {
	Addr string `yaml:"addr" json:"addr"`

	Sources struct {
		File    string        `yaml:"file" json:"file"`
		Timeout time.Duration `yaml:"timeout" json:"timeout"`
		Deny    []string      `yaml:"deny" json:"deny"`
	} `yaml:"sources" json:"sources"`

	LLM struct {
		BaseURL string        `yaml:"base" json:"base"`
		Model   string        `yaml:"model" json:"model"`
		APIKey  string        `yaml:"key" json:"key"`
		Timeout time.Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"llm" json:"llm"`

	Reader struct {
		URL   string        `yaml:"url" json:"url"`
		Delay time.Duration `yaml:"delay" json:"delay"`
	} `yaml:"reader" json:"reader"`

	Cache struct {
		Capacity int           `yaml:"capacity" json:"capacity"`
		TTL      time.Duration `yaml:"ttl" json:"ttl"`
	} `yaml:"cache" json:"cache"`

	Rank struct {
		MinScore    int  `yaml:"minScore" json:"minScore"`
		PerDomain   int  `yaml:"perDomain" json:"perDomain"`
		Pick        int  `yaml:"pick" json:"pick"`
		TitleDedupe bool `yaml:"titleDedupe" json:"titleDedupe"`
	} `yaml:"rank" json:"rank"`

	Summary struct {
		Points    int `yaml:"points" json:"points"`
		ChunkSize int `yaml:"chunkSize" json:"chunkSize"`
	} `yaml:"summary" json:"summary"`

	Verbose bool   `yaml:"verbose" json:"verbose"`
	LogFile string `yaml:"logFile" json:"logFile"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset in cfg. Flags should already have been parsed; file
// config only supplies defaults.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	str := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
		}
	}
	num := func(dst *int, v int) {
		if *dst == 0 && v > 0 {
			*dst = v
		}
	}
	dur := func(dst *time.Duration, v time.Duration) {
		if *dst == 0 && v > 0 {
			*dst = v
		}
	}

	str(&cfg.Addr, fc.Addr)
	str(&cfg.SourcesFile, fc.Sources.File)
	dur(&cfg.SourceTimeout, fc.Sources.Timeout)
	if len(cfg.DenyPatterns) == 0 && len(fc.Sources.Deny) > 0 {
		cfg.DenyPatterns = append([]string{}, fc.Sources.Deny...)
	}

	str(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	str(&cfg.LLMModel, fc.LLM.Model)
	str(&cfg.LLMAPIKey, fc.LLM.APIKey)
	dur(&cfg.LLMTimeout, fc.LLM.Timeout)

	str(&cfg.ReaderURL, fc.Reader.URL)
	dur(&cfg.DeepFetchDelay, fc.Reader.Delay)

	num(&cfg.CacheCapacity, fc.Cache.Capacity)
	dur(&cfg.CacheTTL, fc.Cache.TTL)

	if cfg.MinScore == 0 {
		cfg.MinScore = fc.Rank.MinScore
	}
	num(&cfg.PerDomainCap, fc.Rank.PerDomain)
	num(&cfg.PickCount, fc.Rank.Pick)
	if !cfg.TitleDedupe && fc.Rank.TitleDedupe {
		cfg.TitleDedupe = true
	}

	num(&cfg.SummaryPoints, fc.Summary.Points)
	num(&cfg.ChunkSize, fc.Summary.ChunkSize)

	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
	str(&cfg.LogFile, fc.LogFile)
}

// ValidateConfig performs minimal validation of the settings.
func ValidateConfig(cfg Config) error {
	if cfg.CacheCapacity < 0 || cfg.PerDomainCap < 0 || cfg.PickCount < 0 || cfg.SummaryPoints < 0 || cfg.ChunkSize < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.CacheTTL < 0 || cfg.SourceTimeout < 0 || cfg.LLMTimeout < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	if cfg.LLMBaseURL != "" && strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required when llm.base is set (or set LLM_MODEL)")
	}
	return nil
}
