// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"conversation-agent/internal/config"
	"conversation-agent/internal/domain/model"
	"conversation-agent/internal/domain/ports/adapter"
	aiAdapters "conversation-agent/internal/infra/adapters/ai"
	"conversation-agent/internal/infra/adapters/hass"
	"conversation-agent/internal/infra/api"
	"conversation-agent/internal/infra/i18n"
	"conversation-agent/internal/infra/logging"
	"conversation-agent/internal/infra/metrics"
	red "conversation-agent/internal/infra/redis"
	"conversation-agent/internal/infra/scheduler"
	"conversation-agent/internal/infra/tokens"
	"conversation-agent/internal/infra/worker"
	"conversation-agent/internal/usecase"

	"github.com/rs/zerolog"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted text)")
	mintFor := flag.String("mint-token", "", "print a bearer token for this subject and exit")
	mintTTL := flag.Duration("mint-ttl", 0, "lifetime of the minted token (0 = no expiry)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	if *mintFor != "" {
		if cfg.HTTP.JWTSecret == "" {
			logger.Fatal().Msg("http.jwt_secret is not set")
		}
		tok, err := api.NewAuthManager(cfg.HTTP.JWTSecret).Mint(*mintFor, *mintTTL)
		if err != nil {
			logger.Fatal().Err(err).Msg("mint token")
		}
		fmt.Println(tok)
		return
	}
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Locales ----
	catalog, err := i18n.NewCatalog(i18n.LocalesFS, cfg.I18n.DefaultLanguage)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Worker pool ----
	pool := worker.NewPool(cfg.Worker.Workers, cfg.Worker.QueueSize, logger)
	pool.Start(ctx)
	defer pool.Stop()

	// ---- Token estimator ----
	estimator := tokens.NewEstimator(tokens.DefaultEncoding)
	go func() {
		if err := estimator.Warmup(); err != nil {
			logger.Warn().Err(err).Msg("tiktoken encoding unavailable; using approximate token counts")
		}
	}()

	// ---- Home state ----
	states := stateSource(cfg.Hass, logger)
	summarizer := usecase.NewContextSummarizer(states, logger)

	// ---- Redis (optional) ----
	var limiter api.Limiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient, cfg.Redis.RateLimit, cfg.Redis.Window)
		logger.Info().Int("limit", cfg.Redis.RateLimit).Dur("window", cfg.Redis.Window).Msg("rate limiting enabled")
	}

	// ---- Sessions ----
	factory := func(s model.Settings) (usecase.ConversationUseCase, error) {
		client, err := aiAdapters.NewCompletionClient(s, logger)
		if err != nil {
			return nil, err
		}
		return usecase.NewConversationUseCase(s, client, summarizer, pool, catalog, estimator, logger), nil
	}
	registry := usecase.NewAgentRegistry(factory, logger)
	if cfg.History.IdleTTL > 0 {
		sweeper := scheduler.NewScheduler(cfg.History.SweepInterval, cfg.History.IdleTTL, registry, logger)
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}
	for _, e := range cfg.Entries {
		if err := registry.Setup(e); err != nil {
			logger.Fatal().Err(err).Str("entry_id", e.ID).Msg("setup entry")
		}
		logger.Info().
			Str("entry_id", e.ID).
			Str("provider", e.Provider).
			Str("model", e.Model).
			Str("api_key", logging.Redact(e.APIKey, false)).
			Msg("assistant ready")
	}

	// ---- HTTP ----
	var auth *api.AuthManager
	if cfg.HTTP.JWTSecret != "" {
		auth = api.NewAuthManager(cfg.HTTP.JWTSecret)
	}
	srv := api.NewServer(registry, auth, limiter, cfg.HTTP.RequestTimeout, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Signals ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case sig := <-sigc:
			if sig == syscall.SIGHUP {
				reload(*cfgPath, *devMode, registry, logger)
				continue
			}
			break loop
		}
	}
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	logger.Info().Msg("bye")
}

func stateSource(cfg config.HassConfig, logger *zerolog.Logger) adapter.StateSource {
	if cfg.BaseURL == "" {
		logger.Warn().Int("entities", len(cfg.StaticStates)).Msg("hass.base_url not set; serving static states")
		return hass.NewStaticSource(cfg.StaticStates)
	}
	client, err := hass.NewStateClient(cfg.BaseURL, cfg.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("hass state client")
	}
	return client
}

// reload re-reads the config file; entries whose data or options changed
// lose their history.
func reload(path string, dev bool, registry *usecase.AgentRegistry, logger *zerolog.Logger) {
	cfg, err := config.LoadConfig(path, dev)
	if err != nil {
		logger.Error().Err(err).Msg("reload: keeping current entries")
		return
	}
	if err := registry.Reload(cfg.Entries); err != nil {
		logger.Error().Err(err).Msg("reload")
		return
	}
	logger.Info().Int("entries", len(cfg.Entries)).Msg("config reloaded")
}
