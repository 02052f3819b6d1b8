package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/kairos/internal/api/v1"
	"github.com/gosuda/kairos/internal/api/ws"
	"github.com/gosuda/kairos/internal/capability"
	"github.com/gosuda/kairos/internal/capability/llm"
	"github.com/gosuda/kairos/internal/capability/model"
	"github.com/gosuda/kairos/internal/capability/model/providers/anthropic"
	"github.com/gosuda/kairos/internal/capability/model/providers/gemini"
	"github.com/gosuda/kairos/internal/capability/model/providers/openai"
	"github.com/gosuda/kairos/internal/config"
	"github.com/gosuda/kairos/internal/metrics"
	"github.com/gosuda/kairos/internal/server"
	"github.com/gosuda/kairos/internal/session"
	"github.com/gosuda/kairos/internal/store/postgres"
	redisstore "github.com/gosuda/kairos/internal/store/redis"
	"github.com/gosuda/kairos/internal/stream"
	"github.com/gosuda/kairos/internal/tutor"
)

func newRegistry() *capability.Registry {
	registry := capability.NewRegistry()
	registry.Register("gemini", func(ctx context.Context, cfg model.Config) (model.Model, error) {
		return gemini.New(ctx, cfg)
	})
	registry.Register("openai", func(ctx context.Context, cfg model.Config) (model.Model, error) {
		return openai.New(ctx, cfg)
	})
	registry.Register("anthropic", func(ctx context.Context, cfg model.Config) (model.Model, error) {
		return anthropic.New(ctx, cfg)
	})
	return registry
}

// buildCapabilities creates the fast and quality models for the configured
// provider. Provider "none" yields an empty set: every call falls back.
func buildCapabilities(ctx context.Context, cfg config.ModelConfig, registry *capability.Registry) (capability.Set, v1.ModelInfo, error) {
	info := v1.ModelInfo{Provider: cfg.Provider, Providers: registry.Available()}
	if cfg.Provider == "none" {
		return capability.Set{}, info, nil
	}

	base := model.Config{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Timeout:  cfg.Timeout,
	}

	fastCfg := base
	fastCfg.Model = cfg.Fast
	fast, err := registry.Create(ctx, fastCfg)
	if err != nil {
		return capability.Set{}, info, fmt.Errorf("fast model: %w", err)
	}

	qualityCfg := base
	qualityCfg.Model = cfg.Quality
	quality, err := registry.Create(ctx, qualityCfg)
	if err != nil {
		return capability.Set{}, info, fmt.Errorf("quality model: %w", err)
	}

	info.Fast = fast.Name()
	info.Quality = quality.Name()
	return llm.New(fast, quality), info, nil
}

func tutorConfig(cfg config.SessionConfig) tutor.Config {
	tc := tutor.DefaultConfig()
	tc.Policy = session.DefaultPolicy()
	tc.Policy.StreakLength = cfg.StreakLength
	tc.Policy.Cooldown = cfg.Cooldown
	tc.EmotionRetention = cfg.EmotionRetention
	tc.AdaptationRetention = cfg.AdaptationRetention
	tc.TerminationPhrases = cfg.TerminationPhrases
	tc.QuestionWindow = cfg.QuestionWindow
	return tc
}

func serve(ctx context.Context) error {
	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()
	pingers := make(map[string]server.Pinger)

	// Capabilities behind the gateway.
	registry := newRegistry()
	set, models, err := buildCapabilities(ctx, cfg.Model, registry)
	if err != nil {
		return err
	}
	gateway := capability.NewGateway(set,
		capability.WithTimeout(cfg.Model.Timeout),
		capability.WithObserver(m),
	)
	log.Info().Str("provider", models.Provider).Str("fast", models.Fast).Str("quality", models.Quality).Msg("capabilities ready")

	streamer := stream.New(
		stream.WithPacingScale(cfg.Stream.PacingScale),
		stream.WithObserver(m),
	)

	tc := tutorConfig(cfg.Session)
	factory := func(sessionID string) *tutor.Orchestrator {
		return tutor.New(sessionID, gateway, tc)
	}

	sessionOpts := []ws.SessionOption{
		ws.WithQueueSize(cfg.Session.InboundQueue),
		ws.WithOriginPatterns(cfg.Server.CORSOrigins),
		ws.WithTracker(m),
	}
	deps := server.Deps{Lessons: gateway, Models: models, Metrics: m.Handler(), Pingers: pingers}

	// Connect to PostgreSQL when configured.
	if cfg.Database.DSN != "" {
		if cfg.Database.MaxConns > math.MaxInt32 {
			return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
		}
		store, storeErr := postgres.New(ctx, cfg.Database.DSN, int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
		if storeErr != nil {
			return storeErr
		}
		defer store.Close()

		if cfg.Database.Migrate {
			if migrateErr := store.Migrate(ctx); migrateErr != nil {
				return migrateErr
			}
		}

		deps.Store = store
		pingers["postgres"] = store
		sessionOpts = append(sessionOpts, ws.WithRecorder(store.SessionRecords()))
	} else {
		log.Info().Msg("KAIROS_DB_DSN not set: session analytics are logged, not stored")
	}

	// Connect to Redis when configured.
	if cfg.Redis.Addr != "" {
		pubsub, pubsubErr := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if pubsubErr != nil {
			return pubsubErr
		}
		defer pubsub.Close()

		hub := ws.NewHub(pubsub, cfg.Server.CORSOrigins)
		deps.Hub = hub
		pingers["redis"] = pubsub
		sessionOpts = append(sessionOpts, ws.WithMirror(hub))
	}

	deps.Sessions = ws.NewSessionHandler(factory, streamer, sessionOpts...)

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, deps)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
