// Package server is the HTTP boundary of the bird: the turn route, the raw
// chat pass-through and the intimacy surface.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"crappybird/pkg/bird"
	"crappybird/pkg/metrics"
	"crappybird/pkg/openai"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TurnHandler produces one reaction per turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, turn bird.Turn) (*bird.Reaction, error)
}

// IntimacyStore is the affinity surface exposed over HTTP.
type IntimacyStore interface {
	Get(ctx context.Context) int
	Set(ctx context.Context, v float64)
	ChangeBy(ctx context.Context, delta float64) int
	Reset(ctx context.Context)
}

// ChatCompleter forwards raw chat messages upstream.
type ChatCompleter interface {
	Complete(ctx context.Context, messages json.RawMessage) (*openai.Completion, error)
}

type Options struct {
	AllowedOrigins []string
	// Chat enables POST /api/openai. Nil answers 503.
	Chat ChatCompleter
	// Metrics enables GET /metrics and request counting. Nil disables both.
	Metrics *metrics.Metrics
}

type Server struct {
	engine  *gin.Engine
	turns   TurnHandler
	store   IntimacyStore
	chat    ChatCompleter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New wires the routes. The caller picks the gin mode.
func New(turns TurnHandler, store IntimacyStore, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:  gin.New(),
		turns:   turns,
		store:   store,
		chat:    opts.Chat,
		metrics: opts.Metrics,
		logger:  logger,
	}

	s.engine.Use(RequestID())
	s.engine.Use(ZapLogger(logger))
	s.engine.Use(gin.Recovery())
	if s.metrics != nil {
		s.engine.Use(RequestMetrics(s.metrics))
	}
	s.engine.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	s.routes()
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Request-ID"}
	cfg.ExposeHeaders = []string{"X-Request-ID"}
	cfg.MaxAge = 12 * time.Hour

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (s *Server) routes() {
	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	s.engine.GET("/health", health)
	s.engine.HEAD("/health", health)
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.engine.Group("/api")
	api.POST("/gemini", s.handleTurn)
	api.POST("/turn", s.handleTurn)
	api.POST("/openai", s.handleChat)

	intimacy := api.Group("/intimacy")
	intimacy.GET("", s.getIntimacy)
	intimacy.PUT("", s.setIntimacy)
	intimacy.DELETE("", s.resetIntimacy)
	intimacy.POST("/change", s.changeIntimacy)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
		// Model calls can take most of a minute.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
