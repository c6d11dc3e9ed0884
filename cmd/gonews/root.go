package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hyperifyio/gonews/internal/app"
)

// options holds the persistent flags shared by every command.
type options struct {
	configFile string
	envFiles   []string
	flags      app.Config
	logCloser  io.Closer
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&options{})
}

func newRootCmdWith(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "gonews",
		Short:         "Multi-source news search with ranking and summaries",
		Long:          "gonews fans a query out to many news sources, ranks and de-duplicates the results, and can read and summarize the best articles.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.logCloser != nil {
				_ = opts.logCloser.Close()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.configFile, "config", "", "Path to a YAML or JSON config file")
	f.StringSliceVar(&opts.envFiles, "env", []string{".env"}, "Dotenv files to load; later files win")
	f.StringVar(&opts.flags.SourcesFile, "sources", "", "Path to a YAML source list (default: built-in list)")
	f.StringVar(&opts.flags.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	f.StringVar(&opts.flags.LLMModel, "llm.model", "", "Model name; empty disables completion calls")
	f.StringVar(&opts.flags.LLMAPIKey, "llm.key", "", "API key for the completion service")
	f.DurationVar(&opts.flags.LLMTimeout, "llm.timeout", 0, "Timeout per completion call")
	f.StringVar(&opts.flags.ReaderURL, "reader.url", "", "Remote reader prefix for deep fetches, e.g. https://r.jina.ai/")
	f.DurationVar(&opts.flags.DeepFetchDelay, "reader.delay", 0, "Delay between deep fetches and summary calls")
	f.DurationVar(&opts.flags.SourceTimeout, "source.timeout", 0, "Timeout per source fetch")
	f.IntVar(&opts.flags.CacheCapacity, "cache.capacity", 0, "Maximum cached responses")
	f.DurationVar(&opts.flags.CacheTTL, "cache.ttl", 0, "Default cache TTL")
	f.IntVar(&opts.flags.MinScore, "min.score", 0, "Minimum score to keep a result (0 keeps every result)")
	f.IntVar(&opts.flags.PerDomainCap, "max.perDomain", 0, "Maximum results per domain (0 disables)")
	f.IntVar(&opts.flags.PickCount, "pick", 0, "Number of best URLs to select")
	f.BoolVar(&opts.flags.TitleDedupe, "dedupe.titles", false, "Also collapse results with the same title")
	f.BoolVarP(&opts.flags.Verbose, "verbose", "v", false, "Verbose logging")
	f.StringVar(&opts.flags.LogFile, "log.file", "", "Also write JSON logs to this rotating file")

	root.AddCommand(newServeCmd(opts), newSearchCmd(opts), newVersionCmd())
	return root
}

// setup loads dotenv files, resolves configuration and configures logging.
func (o *options) setup(cmd *cobra.Command) error {
	if err := app.LoadEnvFiles(o.envFiles...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	cfg, err := o.resolve(cmd)
	if err != nil {
		return err
	}
	o.flags = cfg
	o.logCloser = setupLogging(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogFile)
	return nil
}

// resolve merges configuration with precedence flags > env > file > defaults.
func (o *options) resolve(cmd *cobra.Command) (app.Config, error) {
	var cfg app.Config
	if o.configFile != "" {
		fc, err := app.LoadConfigFile(o.configFile)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	in := o.flags
	set("sources", func() { cfg.SourcesFile = in.SourcesFile })
	set("llm.base", func() { cfg.LLMBaseURL = in.LLMBaseURL })
	set("llm.model", func() { cfg.LLMModel = in.LLMModel })
	set("llm.key", func() { cfg.LLMAPIKey = in.LLMAPIKey })
	set("llm.timeout", func() { cfg.LLMTimeout = in.LLMTimeout })
	set("reader.url", func() { cfg.ReaderURL = in.ReaderURL })
	set("reader.delay", func() { cfg.DeepFetchDelay = in.DeepFetchDelay })
	set("source.timeout", func() { cfg.SourceTimeout = in.SourceTimeout })
	set("cache.capacity", func() { cfg.CacheCapacity = in.CacheCapacity })
	set("cache.ttl", func() { cfg.CacheTTL = in.CacheTTL })
	set("min.score", func() {
		cfg.MinScore = in.MinScore
		if cfg.MinScore == 0 {
			cfg.MinScore = -1
		}
	})
	set("max.perDomain", func() { cfg.PerDomainCap = in.PerDomainCap })
	set("pick", func() { cfg.PickCount = in.PickCount })
	set("dedupe.titles", func() { cfg.TitleDedupe = in.TitleDedupe })
	set("verbose", func() { cfg.Verbose = in.Verbose })
	set("log.file", func() { cfg.LogFile = in.LogFile })
	if flags.Lookup("addr") != nil {
		set("addr", func() { cfg.Addr = in.Addr })
	}

	if err := app.ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setupLogging installs the global zerolog logger: console output on w and,
// when logFile is set, JSON lines into a rotating file.
func setupLogging(w io.Writer, verbose bool, logFile string) io.Closer {
	zerolog.TimeFieldFormat = time.RFC3339
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	if logFile == "" {
		log.Logger = zerolog.New(console).With().Timestamp().Logger()
		return nil
	}
	rotating := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    15, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, rotating)).With().Timestamp().Logger()
	return rotating
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.VersionString())
		},
	}
}
