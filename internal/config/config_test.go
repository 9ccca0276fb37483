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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MODE", "DATABASE_URL", "REDIS_URL", "INBOUND_QUEUE", "EVENTS_QUEUE",
		"STORAGE_BUCKET", "AWS_REGION", "DEDUP_TTL", "API_TOKEN", "PORT",
	} {
		t.Setenv(k, "")
	}
}

// TestParse_MockDefaults verifies mock mode needs no backing services.
func TestParse_MockDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse([]byte("mode: mock\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.IsMock() {
		t.Error("expected mock mode")
	}
	if cfg.Storage.Backend != StorageMemory {
		t.Errorf("storage backend = %q, want memory", cfg.Storage.Backend)
	}
	if !cfg.Ingest.CleanupOrphans {
		t.Error("cleanup_orphans should default to true")
	}
	if cfg.Ingest.Dedup {
		t.Error("dedup should default to false")
	}
	if cfg.Ingest.DedupTTL != 24*time.Hour {
		t.Errorf("dedup TTL = %v, want 24h", cfg.Ingest.DedupTTL)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.InboundQueue != "helpdesk:inbound" {
		t.Errorf("inbound queue = %q", cfg.InboundQueue)
	}
}

// TestParse_ProductionRequiresDatabase verifies validation of production mode.
func TestParse_ProductionRequiresDatabase(t *testing.T) {
	clearEnv(t)

	_, err := Parse([]byte("storage:\n  bucket: mail\n"))
	if err == nil {
		t.Fatal("expected error when database.url is missing")
	}
}

// TestParse_EnvExpansion verifies ${VAR} references are expanded.
func TestParse_EnvExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_DB", "postgres://db/helpdesk")

	yaml := `
database:
  url: ${TEST_DB}
storage:
  backend: s3
  bucket: support-mail
ingest:
  dedup: true
  dedup_ttl: 2h
  cleanup_orphans: false
redis:
  url: redis://localhost:6379/0
port: 9090
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://db/helpdesk" {
		t.Errorf("database URL = %q", cfg.DatabaseURL)
	}
	if cfg.Storage.Bucket != "support-mail" {
		t.Errorf("bucket = %q", cfg.Storage.Bucket)
	}
	if !cfg.Ingest.Dedup || cfg.Ingest.DedupTTL != 2*time.Hour {
		t.Errorf("ingest = %+v", cfg.Ingest)
	}
	if cfg.Ingest.CleanupOrphans {
		t.Error("cleanup_orphans should be false")
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Port)
	}
}

// TestParse_Invalid verifies rejected configurations.
func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown mode", "mode: staging\n"},
		{"unknown backend", "mode: mock\nstorage:\n  backend: ftp\n"},
		{"s3 without bucket", "mode: mock\nstorage:\n  backend: s3\n"},
		{"http without gateway", "mode: mock\nstorage:\n  backend: http\n"},
		{"dedup without redis", "mode: mock\ningest:\n  dedup: true\n"},
		{"bad ttl", "mode: mock\ningest:\n  dedup_ttl: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

// TestLoadFile_Missing verifies a missing file is reported.
func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

// TestLoad_ConfigPath verifies CONFIG_PATH selects the file.
func TestLoad_ConfigPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mode: mock\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsMock() {
		t.Error("expected mock mode")
	}
}

// TestLoadFile_Example verifies the shipped example configuration parses.
func TestLoadFile_Example(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://helpdesk@localhost/helpdesk")
	t.Setenv("STORAGE_BUCKET", "helpdesk-mail")

	cfg, err := LoadFile(filepath.Join("..", "..", "config", "config.example.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Backend != StorageS3 || cfg.Storage.Bucket != "helpdesk-mail" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Ingest.Dedup || !cfg.Ingest.CleanupOrphans || cfg.Ingest.DedupTTL != 24*time.Hour {
		t.Errorf("ingest = %+v", cfg.Ingest)
	}
	if cfg.InboundQueue != "helpdesk:inbound" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
}
