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

package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bcem/helpdesk/internal/models"
)

// PostgresStore provides CRUD operations for email settings in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a settings store backed by the given pool.
// It ensures the email_settings table exists on creation.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure email settings schema: %w", err)
	}
	slog.Info("email settings store initialised")
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS email_settings (
			id            TEXT PRIMARY KEY,
			email_pattern TEXT NOT NULL,
			department    TEXT NOT NULL DEFAULT 'GENERAL',
			display_name  TEXT DEFAULT '',
			active        BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ DEFAULT NOW(),
			updated_at    TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_email_settings_order ON email_settings(created_at, id);
	`)
	return err
}

// List returns all settings ordered by creation time, then id.
func (s *PostgresStore) List(ctx context.Context) ([]models.EmailSetting, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, email_pattern, department, display_name, active, created_at, updated_at
		FROM email_settings
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EmailSetting
	for rows.Next() {
		var r models.EmailSetting
		if err := rows.Scan(&r.ID, &r.EmailPattern, &r.Department, &r.DisplayName,
			&r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get retrieves a single setting by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.EmailSetting, error) {
	var r models.EmailSetting
	err := s.pool.QueryRow(ctx, `
		SELECT id, email_pattern, department, display_name, active, created_at, updated_at
		FROM email_settings
		WHERE id = $1
	`, id).Scan(&r.ID, &r.EmailPattern, &r.Department, &r.DisplayName,
		&r.Active, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Insert adds a new setting.
func (s *PostgresStore) Insert(ctx context.Context, r *models.EmailSetting) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO email_settings
			(id, email_pattern, department, display_name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.EmailPattern, r.Department, r.DisplayName, r.Active, r.CreatedAt, r.UpdatedAt)
	return err
}

// Update replaces the mutable fields of a setting.
func (s *PostgresStore) Update(ctx context.Context, r *models.EmailSetting) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE email_settings
		SET email_pattern = $1, department = $2, display_name = $3, active = $4, updated_at = $5
		WHERE id = $6
	`, r.EmailPattern, r.Department, r.DisplayName, r.Active, r.UpdatedAt, r.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a setting.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM email_settings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
