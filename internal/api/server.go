// Package api hosts the gateway's HTTP server: the gin engine, the three client
// surfaces, health and metrics endpoints.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/api/middleware"
	"github.com/streambridge/streambridge/internal/config"
	"github.com/streambridge/streambridge/internal/logging"
	"github.com/streambridge/streambridge/internal/metrics"
	"github.com/streambridge/streambridge/sdk/api/handlers"
	"github.com/streambridge/streambridge/sdk/api/handlers/claude"
	"github.com/streambridge/streambridge/sdk/api/handlers/gemini"
	"github.com/streambridge/streambridge/sdk/api/handlers/openai"
)

// Server is the gateway HTTP server.
type Server struct {
	engine   *gin.Engine
	server   *http.Server
	handlers *handlers.BaseAPIHandler
	cfg      atomic.Pointer[config.Config]
}

// NewServer builds the engine and routes. The listener is not opened until Start.
func NewServer(cfg *config.Config, executor handlers.Executor) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logging.GinLogrusLogger())
	engine.Use(logging.GinLogrusRecovery())

	s := &Server{
		engine:   engine,
		handlers: handlers.NewBaseAPIHandlers(&cfg.SDKConfig, executor),
	}
	s.cfg.Store(cfg)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           engine,
		ReadHeaderTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		logging.SkipGinRequestLogging(c)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", func(c *gin.Context) {
		logging.SkipGinRequestLogging(c)
		metrics.Handler().ServeHTTP(c.Writer, c.Request)
	})

	auth := middleware.AuthMiddleware(func() []string { return s.cfg.Load().APIKeys })
	requestLog := middleware.RequestLoggingMiddleware(func() bool { return s.cfg.Load().RequestLog })

	openaiHandlers := openai.NewOpenAIAPIHandler(s.handlers)
	claudeHandlers := claude.NewClaudeCodeAPIHandler(s.handlers)
	geminiHandlers := gemini.NewGeminiAPIHandler(s.handlers)

	v1 := s.engine.Group("/v1", auth, requestLog)
	{
		v1.POST("/chat/completions", openaiHandlers.ChatCompletions)
		v1.POST("/messages", claudeHandlers.ClaudeMessages)
		v1.POST("/messages/count_tokens", claudeHandlers.ClaudeCountTokens)
	}

	v1beta := s.engine.Group("/v1beta", auth, requestLog)
	{
		v1beta.POST("/models/*action", geminiHandlers.GeminiHandler)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Error: handlers.ErrorDetail{
			Message: fmt.Sprintf("route %s %s not found", c.Request.Method, c.Request.URL.Path),
			Type:    "not_found",
		}})
	})
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.server.Addr }

// Start listens and serves until Stop is called. It returns http.ErrServerClosed after
// a graceful stop.
func (s *Server) Start() error {
	log.Debugf("starting API server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	log.Debug("stopping API server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// UpdateConfig applies a reloaded configuration. The listen address is fixed for the
// lifetime of the server.
func (s *Server) UpdateConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	old := s.cfg.Swap(cfg)
	if old != nil && (old.Host != cfg.Host || old.Port != cfg.Port) {
		log.Warnf("listen address change to %s requires a restart", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	}
	if old != nil && old.Debug != cfg.Debug {
		if cfg.Debug {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	}
	s.handlers.UpdateClients(&cfg.SDKConfig)
}
