package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crappybird/pkg/affinity"
	"crappybird/pkg/bird"
	"crappybird/pkg/cache"
	"crappybird/pkg/config"
	"crappybird/pkg/gemini"
	"crappybird/pkg/logger"
	"crappybird/pkg/metrics"
	"crappybird/pkg/openai"
	"crappybird/pkg/server"
	"crappybird/pkg/surreal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig("config.yml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:    cfg.Logging.Level,
		Encoding: cfg.Logging.Encoding,
		Output:   cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	secrets, err := config.LoadSecrets(".")
	if err != nil {
		log.Fatal("Failed to read env files", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, err := newModel(cfg, secrets, log)
	if err != nil {
		log.Fatal("Failed to configure model provider", zap.Error(err))
	}

	// The pass-through route only needs an OpenAI key, whatever the turn provider.
	var chat server.ChatCompleter
	if secrets.OpenAIAPIKey != "" {
		chat = openai.NewClient(secrets.OpenAIAPIKey, cfg.ModelSettings.OpenAIBaseURL, cfg.ModelSettings.OpenAIModel, log.Named("openai"))
	} else {
		log.Info("OPENAI_API_KEY not set, /api/openai disabled")
	}

	store, closeStore, err := newStore(ctx, cfg, secrets, log)
	if err != nil {
		log.Fatal("Failed to open affinity store", zap.Error(err))
	}
	defer closeStore()
	log.Info("Affinity store ready", zap.Strings("backends", store.Backends()))

	m := metrics.New()
	m.SetIntimacy(store.Get(ctx))

	orchestrator := bird.NewOrchestrator(model, store, log.Named("bird"), bird.Options{
		ApplyAffinity:   cfg.Turns.ApplyAffinity,
		UpstreamRetries: cfg.Turns.UpstreamRetries,
		InitialBackoff:  cfg.InitialBackoff(),
		MaxBackoff:      cfg.MaxBackoff(),
	})
	orchestrator.SetRecorder(m)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(orchestrator, store, log.Named("http"), server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Chat:           chat,
		Metrics:        m,
	})

	if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
		log.Fatal("HTTP server stopped", zap.Error(err))
	}
	log.Info("Crappy Bird is asleep")
}

func newModel(cfg *config.Config, secrets config.Secrets, log *zap.Logger) (bird.Model, error) {
	provider := cfg.ModelSettings.Provider
	key, err := secrets.ProviderKey(provider)
	if err != nil {
		return nil, err
	}

	switch provider {
	case config.ProviderOpenAI:
		client := openai.NewClient(key, cfg.ModelSettings.OpenAIBaseURL, cfg.ModelSettings.OpenAIModel, log.Named("openai"))
		client.SetSampling(cfg.ModelSettings.Temperature, cfg.ModelSettings.TopP)
		log.Info("Using OpenAI for turns", zap.String("model", client.Model()))
		return client, nil
	default:
		client := gemini.NewClient(key, cfg.ModelSettings.GeminiModel)
		client.SetSampling(cfg.ModelSettings.Temperature, cfg.ModelSettings.TopP)
		log.Info("Using Gemini for turns", zap.String("model", client.Model()))
		return client, nil
	}
}

// newStore puts the configured database first, then the cookie file, then
// process memory, so the score survives a database outage.
func newStore(ctx context.Context, cfg *config.Config, secrets config.Secrets, log *zap.Logger) (*affinity.Store, func(), error) {
	if err := secrets.CheckStore(cfg.Store.Primary); err != nil {
		return nil, nil, err
	}

	var backends []affinity.Backend
	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Store.Primary {
	case config.StoreRedis:
		c, err := cache.NewRedisCache(secrets.RedisURL, cfg.Store.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { c.Close() })
		backends = append(backends, affinity.NewRedisBackend(c))

	case config.StoreSurreal:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()

		host := surreal.NormalizeHost(secrets.Surreal.Host)
		log.Info("Connecting to SurrealDB",
			zap.String("host", host),
			zap.String("namespace", secrets.Surreal.Namespace),
			zap.String("database", secrets.Surreal.Database))
		db, err := surreal.NewClient(connectCtx, host, secrets.Surreal.User, secrets.Surreal.Pass, secrets.Surreal.Namespace, secrets.Surreal.Database)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, db.Close)

		backend, err := affinity.NewSurrealBackend(db, cfg.Store.SurrealTable)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		if err := backend.Init(connectCtx); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to define affinity table: %w", err)
		}
		backends = append(backends, backend)
	}

	if cfg.Store.CookieFile != "" {
		backends = append(backends, affinity.NewCookieBackend(cfg.Store.CookieFile))
	}
	backends = append(backends, affinity.NewMemoryBackend())

	return affinity.NewStore(log.Named("affinity"), backends...), closeAll, nil
}
