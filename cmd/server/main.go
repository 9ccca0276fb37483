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

// Helpdesk: Mail-to-Ticket Service
//
// Entry point for the helpdesk service. It:
//  1. Loads configuration from config.yaml
//  2. Connects to PostgreSQL, Redis and object storage (or in-memory stores in mock mode)
//  3. Consumes inbound-mail events from the Redis inbound queue
//  4. Serves the ingest endpoint and the admin API
//  5. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bcem/helpdesk/internal/api"
	"github.com/bcem/helpdesk/internal/app"
	"github.com/bcem/helpdesk/internal/config"
	"github.com/bcem/helpdesk/internal/queue"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting helpdesk service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"mode", cfg.Mode,
		"storage", cfg.Storage.Backend,
		"port", cfg.Port,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// --- Backends ---
	components, err := app.Build(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise components", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	var wg sync.WaitGroup

	// --- Inbound Queue Consumer ---
	if components.Redis != nil {
		consumer := queue.NewConsumer(components.Redis, cfg.InboundQueue, components.Ingestor.Handle)
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Run(ctx)
		}()
	} else {
		slog.Warn("redis not configured, inbound queue consumer disabled")
	}

	// --- HTTP API ---
	server := api.New(api.Config{
		Ingestor:      components.Ingestor,
		Settings:      components.Settings,
		Notifications: components.Notifications,
		Tickets:       components.Tickets,
		Checks:        components.Checks,
		Token:         cfg.APIToken,
	})
	ready, err := api.Serve(ctx, cfg.Port, server.Handler())
	if err != nil {
		slog.Error("failed to start api server", "error", err)
		os.Exit(1)
	}
	<-ready
	slog.Info("helpdesk service ready")

	// --- Graceful Shutdown ---
	<-ctx.Done()
	slog.Info("received shutdown signal")

	wg.Wait()
	slog.Info("helpdesk service stopped")
}
