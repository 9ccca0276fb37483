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

package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bcem/helpdesk/internal/models"
)

// PostgresStore persists notifications in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a notification store backed by the given pool.
// It ensures the notifications table exists on creation.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure notification schema: %w", err)
	}
	slog.Info("notification store initialised")
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS notifications (
			id         TEXT PRIMARY KEY,
			recipient  TEXT NOT NULL DEFAULT '*',
			title      TEXT NOT NULL,
			message    TEXT DEFAULT '',
			type       TEXT NOT NULL DEFAULT 'info',
			read       BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient, created_at);
	`)
	return err
}

// List returns notifications newest first.
func (s *PostgresStore) List(ctx context.Context, q Query) ([]models.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, recipient, title, message, type, read, created_at
		FROM notifications
		WHERE ($1 = '' OR recipient = $1 OR recipient = '*')
		  AND (NOT $2 OR read = FALSE)
		ORDER BY created_at DESC, id
	`, q.Recipient, q.UnreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Recipient, &n.Title, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Insert adds a notification.
func (s *PostgresStore) Insert(ctx context.Context, n *models.Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, recipient, title, message, type, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.Recipient, n.Title, n.Message, n.Type, n.Read, n.CreatedAt)
	return err
}

// MarkRead sets read = TRUE.
func (s *PostgresStore) MarkRead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a notification.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
