package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosimplify/internal/app"
	"github.com/hyperifyio/gosimplify/internal/simplify"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Dotenv first so flag defaults below can read it.
	if err := app.LoadEnvFiles(".env", ".env.local"); err != nil {
		log.Warn().Err(err).Msg("dotenv load failed")
	}

	var (
		cfg        app.Config
		configPath string
		origins    string
		showVer    bool
	)
	flag.StringVar(&configPath, "config", os.Getenv("GOSIMPLIFY_CONFIG"), "Path to YAML or JSON config file")
	flag.StringVar(&cfg.Addr, "addr", app.DefaultAddr, "HTTP listen address")
	flag.StringVar(&origins, "cors.origins", "", "Comma-separated CORS origins (default any)")
	flag.Int64Var(&cfg.MaxBodyBytes, "server.maxBodyBytes", app.DefaultMaxBodyBytes, "Maximum request body size in bytes")
	flag.DurationVar(&cfg.RequestTimeout, "server.requestTimeout", app.DefaultRequestTimeout, "Per-request timeout including the upstream call")
	flag.StringVar(&cfg.Backend, "gateway.backend", app.DefaultBackend, "Summarization backend: openai, huggingface or echo")
	flag.StringVar(&cfg.SystemPrompt, "gateway.systemPrompt", "", "Override the chat system prompt (openai backend)")
	flag.BoolVar(&cfg.SSLVerify, "gateway.sslVerify", true, "Verify upstream TLS certificates")
	flag.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	flag.StringVar(&cfg.LLMModel, "llm.model", "", "Chat model name")
	flag.StringVar(&cfg.LLMAPIKey, "llm.key", "", "API key for the OpenAI-compatible server")
	flag.StringVar(&cfg.HFBaseURL, "hf.base", "", "Hugging Face inference base URL")
	flag.StringVar(&cfg.HFModel, "hf.model", "", "Hugging Face summarization model")
	flag.StringVar(&cfg.HFAPIKey, "hf.key", "", "Hugging Face API token")
	flag.StringVar(&cfg.EchoPrefix, "echo.prefix", "", "Prefix used by the echo backend")
	flag.IntVar(&cfg.MinLength, "keywords.minLength", app.DefaultMinLength, "Keep tokens longer than this many characters")
	flag.IntVar(&cfg.MaxKeywords, "keywords.maxCount", app.DefaultMaxKeywords, "Maximum number of keywords")
	flag.StringVar(&cfg.HighlightDefault, "highlight.default", app.DefaultHighlight, "Default highlight target: simplified, original or none")
	flag.StringVar(&cfg.LanguageHint, "lang", "", "Default target language tag for one-shot mode, e.g. 'en' or 'tr'")
	flag.StringVar(&cfg.InputPath, "input", "", "Process this text file once instead of serving HTTP")
	flag.StringVar(&cfg.OutputPath, "output", app.DefaultOutputPath, "Where one-shot mode writes JSON ('-' for stdout)")
	flag.StringVar(&cfg.OutputPDFPath, "output.pdf", "", "Also write a PDF reading sheet in one-shot mode")
	flag.StringVar(&cfg.CacheDir, "cache.dir", "", "Summary cache directory (disabled when empty)")
	flag.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Purge cached summaries older than this at startup; 0 disables")
	flag.IntVar(&cfg.CacheMaxEntries, "cache.maxEntries", 0, "Keep at most this many cached summaries; 0 disables")
	flag.Int64Var(&cfg.CacheMaxBytes, "cache.maxBytes", 0, "Keep the cache under this many bytes; 0 disables")
	flag.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear the cache directory at startup")
	flag.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	flag.BoolVar(&cfg.LogJSON, "log.json", false, "Log JSON lines instead of console output")
	flag.BoolVar(&showVer, "version", false, "Print version and exit")
	flag.Parse()

	if showVer {
		info := app.BuildInfo()
		fmt.Printf("gosimplify %s (%s, %s)\n", info["version"], info["commit"], info["date"])
		return
	}
	if origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
		for i := range cfg.AllowedOrigins {
			cfg.AllowedOrigins[i] = strings.TrimSpace(cfg.AllowedOrigins[i])
		}
	}

	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	cfg, err := resolveConfig(cfg, configPath, explicit)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("load config")
	}

	if cfg.LogJSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		if errors.Is(err, simplify.ErrInvalidArgument) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// resolveConfig layers the config file and environment under the parsed
// flags. Precedence: explicit flags > env > file > flag defaults.
func resolveConfig(flagged app.Config, configPath string, explicit map[string]bool) (app.Config, error) {
	cfg := flagged
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return cfg, err
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	restoreExplicit(&cfg, flagged, explicit)
	return cfg, nil
}

// restoreExplicit puts back values the user set on the command line after
// the file and env overlays ran.
func restoreExplicit(cfg *app.Config, flagged app.Config, explicit map[string]bool) {
	restore := map[string]func(){
		"addr":                  func() { cfg.Addr = flagged.Addr },
		"cors.origins":          func() { cfg.AllowedOrigins = flagged.AllowedOrigins },
		"server.maxBodyBytes":   func() { cfg.MaxBodyBytes = flagged.MaxBodyBytes },
		"server.requestTimeout": func() { cfg.RequestTimeout = flagged.RequestTimeout },
		"gateway.backend":       func() { cfg.Backend = flagged.Backend },
		"gateway.systemPrompt":  func() { cfg.SystemPrompt = flagged.SystemPrompt },
		"gateway.sslVerify":     func() { cfg.SSLVerify = flagged.SSLVerify },
		"llm.base":              func() { cfg.LLMBaseURL = flagged.LLMBaseURL },
		"llm.model":             func() { cfg.LLMModel = flagged.LLMModel },
		"llm.key":               func() { cfg.LLMAPIKey = flagged.LLMAPIKey },
		"hf.base":               func() { cfg.HFBaseURL = flagged.HFBaseURL },
		"hf.model":              func() { cfg.HFModel = flagged.HFModel },
		"hf.key":                func() { cfg.HFAPIKey = flagged.HFAPIKey },
		"echo.prefix":           func() { cfg.EchoPrefix = flagged.EchoPrefix },
		"keywords.minLength":    func() { cfg.MinLength = flagged.MinLength },
		"keywords.maxCount":     func() { cfg.MaxKeywords = flagged.MaxKeywords },
		"highlight.default":     func() { cfg.HighlightDefault = flagged.HighlightDefault },
		"lang":                  func() { cfg.LanguageHint = flagged.LanguageHint },
		"input":                 func() { cfg.InputPath = flagged.InputPath },
		"output":                func() { cfg.OutputPath = flagged.OutputPath },
		"output.pdf":            func() { cfg.OutputPDFPath = flagged.OutputPDFPath },
		"cache.dir":             func() { cfg.CacheDir = flagged.CacheDir },
		"cache.maxAge":          func() { cfg.CacheMaxAge = flagged.CacheMaxAge },
		"cache.maxEntries":      func() { cfg.CacheMaxEntries = flagged.CacheMaxEntries },
		"cache.maxBytes":        func() { cfg.CacheMaxBytes = flagged.CacheMaxBytes },
		"cache.clear":           func() { cfg.CacheClear = flagged.CacheClear },
		"cache.strictPerms":     func() { cfg.CacheStrictPerms = flagged.CacheStrictPerms },
		"v":                     func() { cfg.Verbose = flagged.Verbose },
		"log.json":              func() { cfg.LogJSON = flagged.LogJSON },
	}
	for name := range explicit {
		if fn, ok := restore[name]; ok {
			fn()
		}
	}
}

func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	return a.Run(ctx)
}
