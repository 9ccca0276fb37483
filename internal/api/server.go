// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api exposes the ingest endpoint and the helpdesk admin resources
// (email settings, notifications, tickets) over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bcem/helpdesk/internal/ingest"
	"github.com/bcem/helpdesk/internal/models"
	"github.com/bcem/helpdesk/internal/notification"
	"github.com/bcem/helpdesk/internal/settings"
	"github.com/bcem/helpdesk/internal/ticket"
)

const apiPrefix = "/api"

// Ingester creates a ticket from an inbound-mail event.
type Ingester interface {
	Ingest(ctx context.Context, event models.InboundEvent) (*ingest.Result, error)
}

// Check reports whether a backend is reachable.
type Check func(ctx context.Context) error

// Config holds the server's collaborators.
type Config struct {
	Ingestor      Ingester
	Settings      *settings.Service
	Notifications *notification.Service
	Tickets       ticket.Store

	// Checks run on GET /health, keyed by backend name.
	Checks map[string]Check

	// Token, when set, is required as a bearer token on /api routes.
	Token string
}

// Server serves the helpdesk HTTP API.
type Server struct {
	ingestor      Ingester
	settings      *settings.Service
	notifications *notification.Service
	tickets       ticket.Store
	checks        map[string]Check
	token         string
}

// New creates an API server.
func New(cfg Config) *Server {
	return &Server{
		ingestor:      cfg.Ingestor,
		settings:      cfg.Settings,
		notifications: cfg.Notifications,
		tickets:       cfg.Tickets,
		checks:        cfg.Checks,
		token:         cfg.Token,
	}
}

// Handler builds the gin engine.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	engine.GET("/health", s.health)
	engine.POST("/ingest", s.authMiddleware(), s.ingest)

	api := engine.Group(apiPrefix, s.authMiddleware())
	s.registerSettingsRoutes(api)
	s.registerNotificationRoutes(api)
	s.registerTicketRoutes(api)

	return engine
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token == "" {
			c.Next()
			return
		}
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "failed": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Serve starts the HTTP server on the given port.
// It binds the port immediately and signals readiness via the returned channel
// before starting to accept connections.
func Serve(ctx context.Context, port int, handler http.Handler) (<-chan struct{}, error) {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind api port %d: %w", port, err)
	}

	ready := make(chan struct{})

	go func() {
		<-ctx.Done()
		slog.Info("api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("api server listening", "port", port)
		close(ready)
		if err := server.Serve(ln); err != http.ErrServerClosed {
			slog.Error("api server error", "error", err)
		}
	}()

	return ready, nil
}
