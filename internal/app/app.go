package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/gonews/internal/aggregate"
	"github.com/hyperifyio/gonews/internal/cache"
	"github.com/hyperifyio/gonews/internal/classify"
	"github.com/hyperifyio/gonews/internal/fetch"
	"github.com/hyperifyio/gonews/internal/llm"
	"github.com/hyperifyio/gonews/internal/metrics"
	"github.com/hyperifyio/gonews/internal/reader"
	"github.com/hyperifyio/gonews/internal/score"
	"github.com/hyperifyio/gonews/internal/search"
	sel "github.com/hyperifyio/gonews/internal/select"
	"github.com/hyperifyio/gonews/internal/source"
	"github.com/hyperifyio/gonews/internal/summarize"
	"github.com/hyperifyio/gonews/internal/throttle"
)

// ErrEmptyQuery is returned for a missing or blank query. The request never
// enters the pipeline.
var ErrEmptyQuery = errors.New("query is required")

// ErrInternal wraps unexpected failures, including recovered panics.
var ErrInternal = errors.New("internal error")

// DefaultLimit is the number of ranked results returned when a request does
// not set one.
const DefaultLimit = sel.DefaultLimit

// Request is one search as received from the CLI or the HTTP surface.
type Request struct {
	Query     string
	Limit     int
	Category  string
	Region    string
	TTL       time.Duration
	Summarize bool
}

// Result is the cacheable body of a search response.
type Result struct {
	Success  bool               `json:"success"`
	Query    string             `json:"query"`
	Category string             `json:"category"`
	Region   string             `json:"region,omitempty"`
	Total    int                `json:"total"`
	Count    int                `json:"count"`
	Results  []search.Candidate `json:"results"`
	BestURLs []string           `json:"best_urls,omitempty"`
	Articles []reader.Article   `json:"articles,omitempty"`
	Summary  []string           `json:"summary,omitempty"`
}

// Response is a Result plus per-request fields that are never cached.
type Response struct {
	Result
	Cached    bool   `json:"cached"`
	ElapsedMS int64  `json:"elapsed_ms"`
	RequestID string `json:"request_id"`

	// TTL is how long the payload stays cached: the request TTL on a miss,
	// the entry's remaining lifetime on a hit.
	TTL time.Duration `json:"-"`
}

// App wires the pipeline components together. One App serves all requests of
// a process; its cache is the only state shared between them.
type App struct {
	cfg     Config
	sources []source.Descriptor
	cache   *cache.Store

	llmClient  llm.Client
	getter     search.Getter
	fetcher    *search.Fetcher
	classifier *classify.Classifier
	picker     *sel.Picker
	reader     *reader.Reader
	summarizer *summarize.Summarizer
	deepQueue  *throttle.Queue
}

// Option customizes New. Tests use options to inject collaborators.
type Option func(*App)

// WithLLMClient replaces the OpenAI-compatible completion client.
func WithLLMClient(c llm.Client) Option { return func(a *App) { a.llmClient = c } }

// WithSources replaces the configured source list.
func WithSources(s []source.Descriptor) Option { return func(a *App) { a.sources = s } }

// WithCache injects a response cache.
func WithCache(s *cache.Store) Option { return func(a *App) { a.cache = s } }

// WithHTTPGetter replaces the HTTP collaborator used for sources and
// deep fetches.
func WithHTTPGetter(g search.Getter) Option { return func(a *App) { a.getter = g } }

// New builds an App from cfg. It fails only on an unreadable source list or
// an invalid deny pattern.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg = withDefaults(cfg)
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	if a.sources == nil {
		if cfg.SourcesFile != "" {
			list, err := source.Load(cfg.SourcesFile)
			if err != nil {
				return nil, err
			}
			a.sources = list
		} else {
			a.sources = source.Defaults()
		}
	}
	if a.cache == nil {
		a.cache = cache.NewStore(cfg.CacheCapacity)
	}
	if a.llmClient == nil && strings.TrimSpace(cfg.LLMModel) != "" {
		a.llmClient = llm.NewOpenAIProvider(cfg.LLMBaseURL, cfg.LLMAPIKey, newHTTPClient(cfg.LLMTimeout))
	}
	sourceGetter, readerGetter := a.getter, a.getter
	if a.getter == nil {
		hc := newHTTPClient(0)
		sourceGetter = &fetch.Client{HTTPClient: hc, PerRequestTimeout: cfg.SourceTimeout, MaxAttempts: 2, MaxConcurrent: 32}
		readerGetter = &fetch.Client{HTTPClient: hc, PerRequestTimeout: 3 * cfg.SourceTimeout, MaxAttempts: 2}
	}

	completer := &llm.Completer{
		Client:      a.llmClient,
		Model:       cfg.LLMModel,
		Timeout:     cfg.LLMTimeout,
		Temperature: 0.1,
		Observe:     metrics.ObserveCompletion,
	}
	fetcher, err := search.NewFetcher(sourceGetter, &score.Scorer{}, cfg.DenyPatterns...)
	if err != nil {
		return nil, err
	}
	fetcher.Timeout = cfg.SourceTimeout
	fetcher.Observe = metrics.ObserveSource
	a.fetcher = fetcher
	a.classifier = &classify.Classifier{LLM: completer}
	a.picker = &sel.Picker{LLM: completer, K: cfg.PickCount}
	a.reader = &reader.Reader{HTTP: readerGetter, BaseURL: cfg.ReaderURL}
	a.deepQueue = throttle.Sequential(cfg.DeepFetchDelay)
	a.summarizer = &summarize.Summarizer{
		LLM:       completer,
		Queue:     throttle.Sequential(cfg.DeepFetchDelay),
		ChunkSize: cfg.ChunkSize,
	}

	a.preflight(ctx)
	log.Info().Int("sources", len(a.sources)).Bool("llm", a.llmClient != nil).Int("cache_capacity", cfg.CacheCapacity).Msg("app ready")
	return a, nil
}

// preflight lists models when the backend supports it. Failure only warns.
func (a *App) preflight(ctx context.Context) {
	lister, ok := a.llmClient.(llm.ModelLister)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	log.Info().Int("count", len(models.Models)).Msg("LLM models available")
}

// Config returns the effective configuration.
func (a *App) Config() Config { return a.cfg }

// Sources returns the configured source list.
func (a *App) Sources() []source.Descriptor {
	out := make([]source.Descriptor, len(a.sources))
	copy(out, a.sources)
	return out
}

// CacheKey returns the response cache key for req.
func CacheKey(req Request) string {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return cache.KeyFor(req.Query, req.Category, req.Region, strconv.Itoa(limit), strconv.FormatBool(req.Summarize))
}

// Search runs the pipeline for req. Collaborator failures only degrade the
// result; the error is non-nil for an empty query or an internal fault.
func (a *App) Search(ctx context.Context, req Request) (resp *Response, err error) {
	start := time.Now()
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		metrics.ObserveRequest("invalid", time.Since(start))
		return nil, ErrEmptyQuery
	}
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	req.Region = strings.TrimSpace(req.Region)
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	ttl := req.TTL
	if ttl <= 0 {
		ttl = a.cfg.CacheTTL
	}
	resp = &Response{RequestID: uuid.NewString(), TTL: ttl}
	logger := log.With().Str("request_id", resp.RequestID).Str("query", req.Query).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("search panicked")
			resp, err = nil, fmt.Errorf("%w: %v", ErrInternal, r)
		}
		outcome := "ok"
		switch {
		case err != nil:
			outcome = "error"
		case resp.Cached:
			outcome = "cached"
		}
		metrics.ObserveRequest(outcome, time.Since(start))
	}()

	key := CacheKey(req)
	if payload, left, ok := a.cache.Lookup(key); ok {
		var cached Result
		if err := json.Unmarshal(payload, &cached); err == nil {
			metrics.ObserveCache(true)
			resp.Result = cached
			resp.Cached = true
			resp.TTL = left
			resp.ElapsedMS = time.Since(start).Milliseconds()
			logger.Debug().Msg("cache hit")
			return resp, nil
		}
		logger.Warn().Msg("discarding undecodable cache entry")
	}
	metrics.ObserveCache(false)

	resp.Result = a.run(ctx, req, logger)
	payload, err := json.Marshal(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("%w: encode result: %v", ErrInternal, err)
	}
	if ctx.Err() == nil {
		a.cache.Put(key, payload, ttl)
	}
	resp.ElapsedMS = time.Since(start).Milliseconds()
	logger.Info().Str("category", resp.Category).Int("total", resp.Total).Int("count", resp.Count).
		Int("articles", len(resp.Articles)).Int64("elapsed_ms", resp.ElapsedMS).Msg("search done")
	return resp, nil
}

func (a *App) run(ctx context.Context, req Request, logger zerolog.Logger) Result {
	regional := source.Filter(a.sources, "", req.Region)

	var category classify.Category
	var cands []search.Candidate
	if req.Category != "" {
		c, err := classify.Resolve(req.Category)
		if err != nil {
			logger.Warn().Str("category", req.Category).Msg("unknown category; using general")
		}
		category = c
		cands = a.fanOut(ctx, source.Filter(regional, string(category), ""), req.Query)
	} else {
		var g errgroup.Group
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logger.Error().Interface("panic", r).Msg("classify panicked")
					category = classify.General
				}
			}()
			category = a.classifier.Classify(ctx, req.Query)
			return nil
		})
		g.Go(func() error {
			cands = a.fanOut(ctx, regional, req.Query)
			return nil
		})
		_ = g.Wait()
		cands = filterCategory(cands, category)
	}

	var unique []search.Candidate
	if a.cfg.TitleDedupe {
		unique = aggregate.DedupeTitles(cands)
	} else {
		unique = aggregate.Dedupe(cands)
	}
	ranked := sel.Rank(unique, sel.Options{Limit: req.Limit, MinScore: a.cfg.MinScore, PerDomain: a.cfg.PerDomainCap})

	res := Result{
		Success:  true,
		Query:    req.Query,
		Category: string(category),
		Region:   req.Region,
		Total:    len(unique),
		Count:    len(ranked),
		Results:  ranked,
	}
	res.BestURLs = a.picker.Pick(ctx, req.Query, ranked)
	if !req.Summarize || len(res.BestURLs) == 0 {
		return res
	}

	res.Articles = a.deepFetch(ctx, res.BestURLs)
	terms := score.Terms(req.Query)
	points, err := a.summarizer.All(ctx, res.Articles, terms)
	if err != nil {
		logger.Warn().Err(err).Msg("no summary points")
		return res
	}
	res.Summary = a.summarizer.Merge(ctx, points, req.Query, a.cfg.SummaryPoints)
	return res
}

// fanOut fetches every source concurrently. Each fetch has its own timeout
// inside the Fetcher; results keep source order.
func (a *App) fanOut(ctx context.Context, srcs []source.Descriptor, query string) []search.Candidate {
	perSource := make([][]search.Candidate, len(srcs))
	var g errgroup.Group
	for i, s := range srcs {
		i, s := i, s
		g.Go(func() error {
			perSource[i] = a.fetcher.Fetch(ctx, s, query)
			return nil
		})
	}
	_ = g.Wait()
	var out []search.Candidate
	for _, c := range perSource {
		out = append(out, c...)
	}
	return out
}

func filterCategory(cands []search.Candidate, category classify.Category) []search.Candidate {
	if category == classify.General {
		return cands
	}
	out := cands[:0]
	for _, c := range cands {
		if c.Category == string(category) || c.Category == string(classify.General) {
			out = append(out, c)
		}
	}
	return out
}

// deepFetch reads the selected URLs one after another with the configured
// delay between fetches. A failed read is recorded on its Article.
func (a *App) deepFetch(ctx context.Context, urls []string) []reader.Article {
	articles := make([]reader.Article, len(urls))
	var mu sync.Mutex
	err := a.deepQueue.Run(ctx, len(urls), func(ctx context.Context, i int) error {
		art, err := a.reader.Read(ctx, urls[i])
		if err != nil {
			log.Warn().Err(err).Str("url", urls[i]).Msg("deep fetch failed")
		}
		mu.Lock()
		articles[i] = art
		mu.Unlock()
		return nil
	})
	for i := range articles {
		if articles[i].URL == "" {
			articles[i] = reader.Article{URL: urls[i], Error: "not fetched"}
			if err != nil {
				articles[i].Error = err.Error()
			}
		}
	}
	return articles
}
