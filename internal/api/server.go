// Package api serves the network queries over HTTP as JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grantnet/netintel/internal/builder"
	"grantnet/netintel/internal/config"
	"grantnet/netintel/internal/influence"
	"grantnet/netintel/internal/pathfinder"
	"grantnet/netintel/internal/query"
)

// Server exposes one built network. The network must not change while serving.
type Server struct {
	builder    *builder.Builder
	engine     *query.Engine
	pathfinder *pathfinder.Pathfinder
	analyzer   *influence.Analyzer
	logger     *slog.Logger
}

// NewServer wires the query components over b's network
func NewServer(b *builder.Builder, cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	g := b.Network()
	engine := query.New(g,
		query.WithQueryConfig(cfg.Query),
		query.WithAnalysisConfig(cfg.Analysis),
		query.WithLogger(logger))
	return &Server{
		builder:    b,
		engine:     engine,
		pathfinder: pathfinder.New(engine, pathfinder.WithConfig(cfg.Pathfinding), pathfinder.WithLogger(logger)),
		analyzer:   influence.New(g, influence.WithConfig(cfg.Influence), influence.WithLogger(logger)),
		logger:     logger,
	}
}

// Router returns a gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.SetupRoutes(router)
	return router
}

// SetupRoutes registers the health, metrics and /v1 query routes
func (s *Server) SetupRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/stats", s.handleStats)
		v1.GET("/grantees/:id/cofunders", s.handleCoFunders)
		foundations := v1.Group("/foundations/:id")
		{
			foundations.GET("/portfolio", s.handlePortfolio)
			foundations.GET("/shared/:other", s.handleShared)
			foundations.GET("/similar", s.handleSimilar)
		}
		v1.GET("/paths", s.handlePaths)
		v1.GET("/pathways", s.handlePathways)
		inf := v1.Group("/influence")
		{
			inf.GET("/top", s.handleTopInfluencers)
			inf.GET("/distribution", s.handleDistribution)
			inf.GET("/nodes/:id", s.handleNodeInfluence)
		}
		v1.GET("/brokers", s.handleBrokers)
		v1.GET("/lapsed", s.handleLapsed)
		export := v1.Group("/export")
		{
			export.GET("/json", s.handleExportJSON)
			export.GET("/graphml", s.handleExportGraphML)
		}
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving API: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("API server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down API: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request served",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)))
	}
}
