// Package httpserver serves the poolstat JSON API.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tinytelemetry/poolstat/internal/model"
)

const (
	defaultHistoryWindow = 24 * time.Hour
	defaultHistoryLimit  = 1440
	maxHistoryWindow     = 366 * 24 * time.Hour

	requestIDHeader = "X-Request-ID"
)

// Server is the HTTP API. Every request re-parses the log through api.
type Server struct {
	addr      string
	api       model.ReadAPI
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a server listening on addr (default 0.0.0.0:8000).
func NewServer(addr string, api model.ReadAPI) *Server {
	if addr == "" {
		addr = "0.0.0.0:8000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		api:       api,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

// Handler returns the routed gin engine.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID())

	r.GET("/metrics", s.handleMetrics)
	r.GET("/api/stats", s.handleStats)
	r.GET("/api/diagnostics", s.handleDiagnostics)
	r.GET("/api/history", s.handleHistory)
	r.GET("/api/health", s.handleHealth)
	return r
}

// Start begins serving in the background.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = listener.Addr().String()
	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Addr returns the listen address, resolved once Start has bound it.
func (s *Server) Addr() string {
	return s.addr
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// requestID tags every response with X-Request-ID, keeping one supplied
// by the caller.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) handleMetrics(c *gin.Context) {
	rep, err := s.api.Report(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, _ := s.api.Stats(c.Request.Context())
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleDiagnostics(c *gin.Context) {
	_, diag := s.api.Stats(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"diagnostics":   diag,
		"total_skipped": diag.TotalSkipped(),
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	window := defaultHistoryWindow
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 || d > maxHistoryWindow {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window must be a positive duration such as 1h or 24h"})
			return
		}
		window = d
	}
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	samples, err := s.api.History(c.Request.Context(), window, limit)
	if errors.Is(err, model.ErrHistoryDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"window":  window.String(),
		"count":   len(samples),
		"samples": samples,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}
