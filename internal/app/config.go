package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Server
	Addr string

	// Sources
	SourcesFile   string
	SourceTimeout time.Duration
	DenyPatterns  []string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	LLMTimeout time.Duration

	// Deep fetch
	ReaderURL      string
	DeepFetchDelay time.Duration

	// Cache
	CacheCapacity int
	CacheTTL      time.Duration

	// Ranking / summarization
	MinScore      int
	PerDomainCap  int
	PickCount     int
	SummaryPoints int
	ChunkSize     int
	TitleDedupe   bool

	// Behavior
	Verbose bool
	LogFile string
}

// Defaults used when the corresponding Config field is zero.
const (
	DefaultAddr           = ":8080"
	DefaultSourceTimeout  = 8 * time.Second
	DefaultLLMTimeout     = 20 * time.Second
	DefaultDeepFetchDelay = 2 * time.Second
	DefaultCacheCapacity  = 100
	DefaultCacheTTL       = 30 * time.Minute
	DefaultMinScore       = 5
	DefaultPickCount      = 3
	DefaultSummaryPoints  = 5
	DefaultChunkSize      = 3000
)

// withDefaults returns cfg with zero fields replaced by their defaults. A
// negative DeepFetchDelay disables the delay and a negative MinScore disables
// the score threshold.
func withDefaults(cfg Config) Config {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = DefaultSourceTimeout
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = DefaultLLMTimeout
	}
	if cfg.DeepFetchDelay == 0 {
		cfg.DeepFetchDelay = DefaultDeepFetchDelay
	}
	if cfg.DeepFetchDelay < 0 {
		cfg.DeepFetchDelay = 0
	}
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = DefaultCacheCapacity
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.MinScore == 0 {
		cfg.MinScore = DefaultMinScore
	}
	if cfg.MinScore < 0 {
		cfg.MinScore = 0
	}
	if cfg.PickCount <= 0 {
		cfg.PickCount = DefaultPickCount
	}
	if cfg.SummaryPoints <= 0 {
		cfg.SummaryPoints = DefaultSummaryPoints
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return cfg
}
