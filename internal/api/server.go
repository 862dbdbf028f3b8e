package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ea-stress-lab/internal/observability"
	"ea-stress-lab/internal/storage"
)

// Server serves the validation results over HTTP.
type Server struct {
	engine *gin.Engine
	server *http.Server
	logger *log.Logger
}

// Options configures the API server. EquityCurves may be nil when no
// timeseries backend is configured; the curve endpoint returns 503 then.
type Options struct {
	Port         int
	Runs         storage.ValidationRunStore
	Trades       storage.TradeStore
	Leaderboard  storage.LeaderboardStore
	EquityCurves storage.EquityCurveStore
	Logger       *log.Logger
}

// NewServer creates a configured server. It does not start listening.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[api] ", log.LstdFlags)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(loggerMiddleware(logger))

	s := &Server{
		engine: engine,
		logger: logger,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", opts.Port),
			Handler: engine,
		},
	}

	s.setupRoutes(opts)
	return s
}

func (s *Server) setupRoutes(opts Options) {
	handler := NewHandler(opts.Runs, opts.Trades, opts.Leaderboard, opts.EquityCurves)

	api := s.engine.Group("/api")
	{
		api.GET("/runs", handler.ListRuns)
		api.GET("/runs/:id", handler.GetRun)
		api.GET("/runs/:id/trades", handler.GetTrades)
		api.GET("/runs/:id/equity", handler.GetEquityCurve)

		api.GET("/ea/:name/runs", handler.GetRunsByEA)

		api.GET("/leaderboard", handler.GetLeaderboard)
		api.GET("/leaderboard/:name", handler.GetLeaderboardEntry)
	}

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(observability.Handler()))
}

// Start listens and serves until Shutdown or failure.
func (s *Server) Start() error {
	s.logger.Printf("listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func loggerMiddleware(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		observability.RecordHTTPRequest(c.Request.Method, c.FullPath(), strconv.Itoa(status), elapsed.Seconds())
		logger.Printf("%s %s %d %v", c.Request.Method, path, status, elapsed)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
