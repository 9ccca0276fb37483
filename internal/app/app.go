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

// Package app assembles the helpdesk components from configuration. Both the
// server and the ticketctl CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bcem/helpdesk/internal/api"
	"github.com/bcem/helpdesk/internal/config"
	"github.com/bcem/helpdesk/internal/dedup"
	"github.com/bcem/helpdesk/internal/ingest"
	"github.com/bcem/helpdesk/internal/notification"
	"github.com/bcem/helpdesk/internal/objectstore"
	"github.com/bcem/helpdesk/internal/queue"
	"github.com/bcem/helpdesk/internal/routing"
	"github.com/bcem/helpdesk/internal/settings"
	"github.com/bcem/helpdesk/internal/ticket"
)

// App holds the wired components.
type App struct {
	Config *config.Config

	Objects       objectstore.Store
	Tickets       ticket.Store
	Settings      *settings.Service
	Notifications *notification.Service
	Ingestor      *ingest.Ingestor

	// Redis is nil when no redis.url is configured.
	Redis *redis.Client

	// Checks are the backend probes served on /health.
	Checks map[string]api.Check

	closers []func()
}

// Build connects to the configured backends and wires the ingestor. In mock
// mode tickets, settings and notifications live in memory.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config: cfg,
		Checks: make(map[string]api.Check),
	}

	if err := a.buildStores(ctx); err != nil {
		a.Close()
		return nil, err
	}

	objects, err := newObjectStore(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Objects = objects

	if err := a.connectRedis(ctx); err != nil {
		a.Close()
		return nil, err
	}

	ingCfg := ingest.Config{
		Objects:        a.Objects,
		Tickets:        a.Tickets,
		Router:         routing.NewResolver(a.Settings),
		CleanupOrphans: cfg.Ingest.CleanupOrphans,
	}
	if a.Redis != nil {
		ingCfg.Events = queue.NewPublisher(a.Redis, cfg.EventsQueue)
		if cfg.Ingest.Dedup {
			ingCfg.Dedup = dedup.NewFilter(a.Redis, cfg.Ingest.DedupTTL)
		}
	}
	a.Ingestor = ingest.New(ingCfg)

	slog.Info("components ready",
		"mode", cfg.Mode,
		"storage", cfg.Storage.Backend,
		"redis", a.Redis != nil,
		"dedup", ingCfg.Dedup != nil,
		"cleanup_orphans", cfg.Ingest.CleanupOrphans,
	)

	return a, nil
}

// ErrNoDatabase is returned by Migrate in mock mode.
var ErrNoDatabase = errors.New("mock mode has no database")

// Migrate connects to PostgreSQL only and creates the helpdesk tables. Object
// storage and Redis are not contacted.
func Migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.IsMock() {
		return ErrNoDatabase
	}
	a := &App{
		Config: cfg,
		Checks: make(map[string]api.Check),
	}
	defer a.Close()

	// Store construction ensures the schema.
	return a.buildStores(ctx)
}

// Close releases backend connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) buildStores(ctx context.Context) error {
	if a.Config.IsMock() {
		slog.Info("mock mode: using in-memory stores")
		a.Tickets = ticket.NewMemoryStore()
		a.Settings = settings.NewService(settings.NewMemoryStore())
		a.Notifications = notification.NewService(notification.NewMemoryStore())
		return nil
	}

	pool, err := pgxpool.New(ctx, a.Config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create Postgres pool: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	slog.Info("connected to PostgreSQL")
	a.Checks["postgres"] = pool.Ping

	tickets, err := ticket.NewPostgresStore(ctx, pool)
	if err != nil {
		return fmt.Errorf("initialise ticket store: %w", err)
	}
	settingsStore, err := settings.NewPostgresStore(ctx, pool)
	if err != nil {
		return fmt.Errorf("initialise email settings store: %w", err)
	}
	notifications, err := notification.NewPostgresStore(ctx, pool)
	if err != nil {
		return fmt.Errorf("initialise notification store: %w", err)
	}

	a.Tickets = tickets
	a.Settings = settings.NewService(settingsStore)
	a.Notifications = notification.NewService(notifications)
	return nil
}

func (a *App) connectRedis(ctx context.Context) error {
	if a.Config.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(a.Config.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	a.closers = append(a.closers, func() { rdb.Close() })

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	slog.Info("connected to Redis")

	a.Redis = rdb
	a.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	return nil
}

func newObjectStore(ctx context.Context, cfg config.StorageConfig) (objectstore.Store, error) {
	switch cfg.Backend {
	case config.StorageS3:
		store, err := objectstore.NewS3(ctx, objectstore.S3Config{
			Bucket:        cfg.Bucket,
			Region:        cfg.Region,
			Endpoint:      cfg.Endpoint,
			PublicBaseURL: cfg.PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("initialise S3 store: %w", err)
		}
		return store, nil
	case config.StorageHTTP:
		return objectstore.NewGateway(ctx, objectstore.GatewayConfig{
			URL:           cfg.GatewayURL,
			PublicBaseURL: cfg.PublicBaseURL,
			TokenURL:      cfg.TokenURL,
			ClientID:      cfg.ClientID,
			ClientSecret:  cfg.ClientSecret,
			Scopes:        cfg.Scopes,
		}), nil
	case config.StorageMemory:
		return objectstore.NewMemory(cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
