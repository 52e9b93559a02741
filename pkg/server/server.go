package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/flavorlab/nutrigraph"
	"github.com/flavorlab/nutrigraph/pkg/config"
	"github.com/flavorlab/nutrigraph/pkg/metrics"
	"github.com/flavorlab/nutrigraph/pkg/server/handlers"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Server represents the HTTP server
type Server struct {
	config *config.Config
	router *gin.Engine
	engine nutrigraph.Engine
	server *http.Server
	logger *slog.Logger
}

// New creates a new server instance. engine may be nil, in which case only
// the health endpoints are useful and /ready reports not ready.
func New(cfg *config.Config, engine nutrigraph.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config: cfg,
		engine: engine,
		logger: logger,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	if s.config.Server.Mode != "" {
		gin.SetMode(s.config.Server.Mode)
	}

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware(s.config.Server.CORSOrigins))
	s.router.Use(requestIDMiddleware())
	if s.config.Tracing.Enabled {
		s.router.Use(otelgin.Middleware(s.config.Tracing.ServiceName))
	}
	s.router.Use(contextMiddleware())
	s.router.Use(metricsMiddleware())
	s.router.Use(loggingMiddleware(s.logger))

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler returns the configured router. Setup must be called first.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	var stats nutrigraph.StatsReporter
	if s.engine != nil {
		stats = s.engine
	}
	healthHandler := handlers.NewHealthHandler(stats)

	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.engine == nil {
		return
	}
	queryHandler := handlers.NewQueryHandler(s.engine, s.logger)
	recordHandler := handlers.NewRecordHandler(s.engine, s.logger)

	v1 := s.router.Group("/api/v1")
	{
		entities := v1.Group("/entities")
		{
			entities.POST("/search", queryHandler.SearchEntities)
			entities.PUT("", recordHandler.UpsertEntity)
			entities.GET("/:id", queryHandler.GetEntity)
			entities.DELETE("/:id", recordHandler.DeleteEntity)
			entities.GET("/:id/connections", queryHandler.GetConnections)
		}

		relationships := v1.Group("/relationships")
		{
			relationships.POST("/search", queryHandler.SearchRelationships)
			relationships.PUT("", recordHandler.UpsertRelationship)
			relationships.GET("/:id", queryHandler.GetRelationship)
			relationships.DELETE("/:id", recordHandler.DeleteRelationship)
		}

		v1.GET("/path", queryHandler.FindPath)
		v1.GET("/stats", queryHandler.GetStats)
		v1.GET("/stats/:kind", queryHandler.GetStats)
		v1.GET("/types", queryHandler.ListTypes)
		v1.GET("/suggest", queryHandler.Suggest)
		v1.GET("/pillars", queryHandler.ListPillars)
	}
}

// Start starts the server and blocks until it stops. A graceful shutdown
// is not reported as an error.
func (s *Server) Start() error {
	s.logger.Info("Starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping server")
	return s.server.Shutdown(ctx)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", RequestIDHeader, "X-User-ID"},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// requestIDMiddleware reuses the caller's X-Request-ID or assigns a new one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(handlers.RequestIDKey, requestID)
		ctx := context.WithValue(c.Request.Context(), types.ContextKeyRequestID, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// contextMiddleware extracts context information from headers
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if userID := c.GetHeader("X-User-ID"); userID != "" {
			ctx = context.WithValue(ctx, types.ContextKeyUserID, userID)
		}
		ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "http")

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		method := c.Request.Method

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(handlers.RequestIDKey))
	}
}
