package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosimplify/internal/cache"
	"github.com/hyperifyio/gosimplify/internal/export"
	"github.com/hyperifyio/gosimplify/internal/gateway"
	"github.com/hyperifyio/gosimplify/internal/keywords"
	"github.com/hyperifyio/gosimplify/internal/llm"
	"github.com/hyperifyio/gosimplify/internal/server"
	"github.com/hyperifyio/gosimplify/internal/simplify"
)

// App owns the configured service and runs it either as an HTTP server or
// once over an input file.
type App struct {
	cfg Config
	svc *simplify.Service
	// Stdout receives one-shot output when OutputPath is "-".
	Stdout io.Writer
}

// New wires the gateway, optional summary cache and service from cfg. The
// LLM client may be injected for tests; nil builds a go-openai client.
func New(ctx context.Context, cfg Config, client llm.Client) (*App, error) {
	hc := newUpstreamHTTPClient(cfg.SSLVerify)
	opts := gateway.Options{Backend: cfg.Backend, HTTPClient: hc, SystemPrompt: cfg.SystemPrompt, EchoPrefix: cfg.EchoPrefix}
	switch strings.ToLower(cfg.Backend) {
	case gateway.BackendHuggingFace:
		opts.BaseURL, opts.Model, opts.APIKey = cfg.HFBaseURL, cfg.HFModel, cfg.HFAPIKey
	case gateway.BackendEcho:
	default:
		if client == nil {
			client = llm.NewOpenAIProvider(cfg.LLMBaseURL, cfg.LLMAPIKey, hc)
		}
		opts.LLM = client
		opts.BaseURL, opts.Model, opts.APIKey = cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMAPIKey
		preflight(ctx, client, cfg.LLMModel)
	}
	gw, err := gateway.New(opts)
	if err != nil {
		return nil, err
	}

	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Msg("cache clear failed")
			}
		}
		if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
			log.Warn().Err(err).Msg("cache purge failed")
		} else if n > 0 {
			log.Info().Int("removed", n).Msg("purged stale summaries")
		}
		if n, err := cache.EnforceLimits(cfg.CacheDir, cfg.CacheMaxBytes, cfg.CacheMaxEntries); err != nil {
			log.Warn().Err(err).Msg("cache limit enforcement failed")
		} else if n > 0 {
			log.Info().Int("removed", n).Msg("evicted summaries over cache limits")
		}
		gw = &gateway.Cached{Inner: gw, Cache: &cache.SummaryCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}}
	}

	target, err := simplify.ParseTarget(cfg.HighlightDefault, simplify.TargetSimplified)
	if err != nil {
		return nil, err
	}
	svc := &simplify.Service{
		Gateway:       gw,
		Extractor:     keywords.Extractor{MinLength: cfg.MinLength, MaxCount: cfg.MaxKeywords},
		DefaultTarget: target,
	}
	log.Info().Str("backend", gw.Backend()).Str("model", gw.Model()).Bool("cache", cfg.CacheDir != "").Msg("gateway ready")
	return &App{cfg: cfg, svc: svc, Stdout: os.Stdout}, nil
}

// preflight lists models to surface connectivity problems early. It never
// fails startup.
func preflight(ctx context.Context, client llm.Client, model string) {
	lister, ok := client.(llm.ModelLister)
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
	found := false
	for _, m := range models.Models {
		if m.ID == model {
			found = true
			break
		}
	}
	ev := log.Info()
	if !found {
		ev = log.Warn()
	}
	ev.Int("count", len(models.Models)).Str("model", model).Bool("listed", found).Msg("LLM models available")
}

// Run serves HTTP until ctx is cancelled, or processes InputPath once.
func (a *App) Run(ctx context.Context) error {
	if strings.TrimSpace(a.cfg.InputPath) != "" {
		return a.runOnce(ctx)
	}
	return a.serve(ctx)
}

func (a *App) handler() http.Handler {
	return server.New(a.svc, server.Options{
		AllowedOrigins: a.cfg.AllowedOrigins,
		MaxBodyBytes:   a.cfg.MaxBodyBytes,
		RequestTimeout: a.cfg.RequestTimeout,
		Version:        BuildInfo(),
	}).Handler()
}

func (a *App) serve(ctx context.Context) error {
	addr := a.cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) runOnce(ctx context.Context) error {
	in, err := os.ReadFile(a.cfg.InputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	res, err := a.svc.Simplify(ctx, simplify.Request{Text: string(in), Lang: a.cfg.LanguageHint})
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	if p := a.cfg.OutputPath; p == "" || p == "-" {
		if _, err := a.Stdout.Write(out); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(p, out, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		log.Info().Str("out", p).Int("keywords", len(res.Keywords)).Msg("wrote result")
	}
	if p := a.cfg.OutputPDFPath; p != "" {
		f, err := os.Create(p)
		if err != nil {
			return fmt.Errorf("create pdf: %w", err)
		}
		if err := export.WritePDF(f, export.Sheet{Text: res.SimplifiedText, Keywords: res.Keywords}); err != nil {
			f.Close()
			return fmt.Errorf("write pdf: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Info().Str("out", p).Msg("wrote pdf")
	}
	return nil
}
