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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Run modes.
const (
	ModeProduction = "production"
	ModeMock       = "mock"
)

// Storage backends.
const (
	StorageS3     = "s3"
	StorageHTTP   = "http"
	StorageMemory = "memory"
)

// StorageConfig selects and configures the object store holding raw
// messages and attachments.
type StorageConfig struct {
	Backend string

	// S3
	Bucket   string
	Region   string
	Endpoint string // optional, for S3-compatible stores

	// PublicBaseURL prefixes object keys to build attachment URLs.
	// Defaults to the bucket's virtual-hosted S3 URL.
	PublicBaseURL string

	// HTTP object gateway
	GatewayURL   string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// IngestConfig tunes the ticket ingestor.
type IngestConfig struct {
	// Dedup rejects a message id that was already ingested within DedupTTL.
	// Off by default: redelivery creates a second ticket unless enabled.
	Dedup    bool
	DedupTTL time.Duration

	// CleanupOrphans deletes attachments written earlier in an ingestion
	// that later fails.
	CleanupOrphans bool
}

// Config holds all configuration for the helpdesk service.
type Config struct {
	Mode string

	// Postgres
	DatabaseURL string

	// Redis
	RedisURL     string
	InboundQueue string
	EventsQueue  string

	Storage StorageConfig
	Ingest  IngestConfig

	// API bearer token; empty disables auth on /api.
	APIToken string

	// Server
	Port int
}

// IsMock reports whether the service should run on in-memory stores.
func (c *Config) IsMock() bool {
	return c.Mode == ModeMock
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Mode     string `yaml:"mode"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL    string `yaml:"url"`
		Queues struct {
			Inbound string `yaml:"inbound"`
			Events  string `yaml:"events"`
		} `yaml:"queues"`
	} `yaml:"redis"`
	Storage struct {
		Backend       string `yaml:"backend"`
		Bucket        string `yaml:"bucket"`
		Region        string `yaml:"region"`
		Endpoint      string `yaml:"endpoint"`
		PublicBaseURL string `yaml:"public_base_url"`
		Gateway       struct {
			URL          string   `yaml:"url"`
			TokenURL     string   `yaml:"token_url"`
			ClientID     string   `yaml:"client_id"`
			ClientSecret string   `yaml:"client_secret"`
			Scopes       []string `yaml:"scopes"`
		} `yaml:"gateway"`
	} `yaml:"storage"`
	Ingest struct {
		Dedup          bool   `yaml:"dedup"`
		DedupTTL       string `yaml:"dedup_ttl"`
		CleanupOrphans *bool  `yaml:"cleanup_orphans"`
	} `yaml:"ingest"`
	API struct {
		Token string `yaml:"token"`
	} `yaml:"api"`
	Port int `yaml:"port"`
}

// Load reads configuration from the file named by CONFIG_PATH.
func Load() (*Config, error) {
	return LoadFile(envOrDefault("CONFIG_PATH", "/app/config/config.yaml"))
}

// LoadFile reads configuration from config.yaml at path (with env var
// expansion) and environment variables for non-YAML settings.
func LoadFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes.
func Parse(data []byte) (*Config, error) {
	// Expand ${VAR} references in the YAML
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	cfg := &Config{
		Mode:         strings.ToLower(firstNonEmpty(raw.Mode, envOrDefault("MODE", ModeProduction))),
		DatabaseURL:  firstNonEmpty(raw.Database.URL, os.Getenv("DATABASE_URL")),
		RedisURL:     firstNonEmpty(raw.Redis.URL, os.Getenv("REDIS_URL")),
		InboundQueue: firstNonEmpty(raw.Redis.Queues.Inbound, envOrDefault("INBOUND_QUEUE", "helpdesk:inbound")),
		EventsQueue:  firstNonEmpty(raw.Redis.Queues.Events, envOrDefault("EVENTS_QUEUE", "helpdesk:events")),
		Storage: StorageConfig{
			Backend:       strings.ToLower(raw.Storage.Backend),
			Bucket:        firstNonEmpty(raw.Storage.Bucket, os.Getenv("STORAGE_BUCKET")),
			Region:        firstNonEmpty(raw.Storage.Region, envOrDefault("AWS_REGION", "eu-central-1")),
			Endpoint:      raw.Storage.Endpoint,
			PublicBaseURL: raw.Storage.PublicBaseURL,
			GatewayURL:    raw.Storage.Gateway.URL,
			TokenURL:      raw.Storage.Gateway.TokenURL,
			ClientID:      raw.Storage.Gateway.ClientID,
			ClientSecret:  raw.Storage.Gateway.ClientSecret,
			Scopes:        raw.Storage.Gateway.Scopes,
		},
		Ingest: IngestConfig{
			Dedup:          raw.Ingest.Dedup,
			DedupTTL:       envOrDefaultDuration("DEDUP_TTL", 24*time.Hour),
			CleanupOrphans: true,
		},
		APIToken: firstNonEmpty(raw.API.Token, os.Getenv("API_TOKEN")),
		Port:     envOrDefaultInt("PORT", 8080),
	}

	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if raw.Ingest.DedupTTL != "" {
		d, err := time.ParseDuration(raw.Ingest.DedupTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid ingest.dedup_ttl %q: %w", raw.Ingest.DedupTTL, err)
		}
		cfg.Ingest.DedupTTL = d
	}
	if raw.Ingest.CleanupOrphans != nil {
		cfg.Ingest.CleanupOrphans = *raw.Ingest.CleanupOrphans
	}

	if cfg.Storage.Backend == "" {
		if cfg.IsMock() {
			cfg.Storage.Backend = StorageMemory
		} else {
			cfg.Storage.Backend = StorageS3
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Mode {
	case ModeProduction, ModeMock:
	default:
		return fmt.Errorf("unknown mode %q (want %q or %q)", c.Mode, ModeProduction, ModeMock)
	}

	if !c.IsMock() && c.DatabaseURL == "" {
		return fmt.Errorf("database.url is required in %s mode", c.Mode)
	}

	switch c.Storage.Backend {
	case StorageS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the s3 backend")
		}
	case StorageHTTP:
		if c.Storage.GatewayURL == "" {
			return fmt.Errorf("storage.gateway.url is required for the http backend")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Ingest.Dedup && c.RedisURL == "" {
		return fmt.Errorf("ingest.dedup requires redis.url")
	}

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
