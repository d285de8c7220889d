package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	researchkb "github.com/researchkb/researchkb"
	"github.com/researchkb/researchkb/pkg/config"
	"github.com/researchkb/researchkb/pkg/server/handlers"
	"github.com/researchkb/researchkb/pkg/telemetry"
	"github.com/researchkb/researchkb/pkg/types"
)

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	router   *gin.Engine
	kb       researchkb.ResearchKB
	server   *http.Server
	recorder *telemetry.Recorder
}

// New creates a new server instance
func New(cfg *config.Config, kb researchkb.ResearchKB) *Server {
	return &Server{
		config: cfg,
		kb:     kb,
	}
}

// SetRecorder enables search telemetry recording. Call before Setup.
func (s *Server) SetRecorder(r *telemetry.Recorder) {
	s.recorder = r
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()

	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.kb)
	searchHandler := handlers.NewSearchHandler(s.kb, s.recorder)
	graphHandler := handlers.NewGraphHandler(s.kb)
	citationHandler := handlers.NewCitationHandler(s.kb)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/search", searchHandler.Search)

		concepts := v1.Group("/concepts")
		{
			concepts.GET("/match", graphHandler.MatchConcepts)
			concepts.GET("/path", graphHandler.Path)
			concepts.GET("/:id/neighborhood", graphHandler.Neighborhood)
		}

		v1.GET("/sources/:id/citations", citationHandler.Citations)
		v1.POST("/authority/recompute", citationHandler.RecomputeAuthority)
	}
}

// Start starts the server
func (s *Server) Start() error {
	fmt.Printf("Starting server on %s\n", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println("Stopping server...")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextMiddleware attaches request identifiers consumed by telemetry
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		ctx = context.WithValue(ctx, types.ContextKeyRequestID, uuid.New().String())

		if sessionID := c.GetHeader("X-Session-ID"); sessionID != "" {
			ctx = context.WithValue(ctx, types.ContextKeySessionID, sessionID)
		}

		ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "api")

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
