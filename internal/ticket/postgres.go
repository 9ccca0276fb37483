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

package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bcem/helpdesk/internal/models"
)

const selectColumns = `
	SELECT id, title, description, status, priority, category, created_by,
	       assigned_to, created_at, updated_at, closed_at, attachments,
	       sender_email, recipient_email, is_from_email, message_id
	FROM tickets`

// PostgresStore provides ticket persistence in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a ticket store backed by the given pool.
// It ensures the tickets table exists on creation.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure ticket schema: %w", err)
	}
	slog.Info("ticket store initialised")
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tickets (
			id              TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			status          TEXT NOT NULL,
			priority        TEXT NOT NULL,
			category        TEXT NOT NULL,
			created_by      TEXT NOT NULL,
			assigned_to     TEXT,
			created_at      TIMESTAMPTZ NOT NULL,
			updated_at      TIMESTAMPTZ NOT NULL,
			closed_at       TIMESTAMPTZ,
			attachments     TEXT[] NOT NULL DEFAULT '{}',
			sender_email    TEXT DEFAULT '',
			recipient_email TEXT DEFAULT '',
			is_from_email   BOOLEAN DEFAULT FALSE,
			message_id      TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_tickets_category ON tickets(category);
		CREATE INDEX IF NOT EXISTS idx_tickets_created ON tickets(created_at);
		CREATE INDEX IF NOT EXISTS idx_tickets_message ON tickets(message_id);
	`)
	return err
}

// Put inserts or replaces a ticket keyed on id.
func (s *PostgresStore) Put(ctx context.Context, t *models.Ticket) error {
	attachments := t.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tickets
			(id, title, description, status, priority, category, created_by,
			 assigned_to, created_at, updated_at, closed_at, attachments,
			 sender_email, recipient_email, is_from_email, message_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			title           = EXCLUDED.title,
			description     = EXCLUDED.description,
			status          = EXCLUDED.status,
			priority        = EXCLUDED.priority,
			category        = EXCLUDED.category,
			assigned_to     = EXCLUDED.assigned_to,
			updated_at      = EXCLUDED.updated_at,
			closed_at       = EXCLUDED.closed_at,
			attachments     = EXCLUDED.attachments
	`, t.ID, t.Title, t.Description, t.Status, t.Priority, t.Category, t.CreatedBy,
		t.AssignedTo, t.CreatedAt, t.UpdatedAt, t.ClosedAt, attachments,
		t.Metadata.SenderEmail, t.Metadata.RecipientEmail, t.Metadata.IsFromEmail, t.Metadata.MessageID)
	if err != nil {
		return fmt.Errorf("insert ticket %s: %w", t.ID, err)
	}
	return nil
}

// Get retrieves a single ticket by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Ticket, error) {
	row := s.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id)
	t, err := scanTicket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List returns tickets newest first, optionally filtered.
func (s *PostgresStore) List(ctx context.Context, f ListFilter) ([]models.Ticket, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, strings.ToLower(f.Category))
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

// scanTicket scans a single row into a Ticket.
func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var (
		t         models.Ticket
		messageID *string
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Category, &t.CreatedBy,
		&t.AssignedTo, &t.CreatedAt, &t.UpdatedAt, &t.ClosedAt, &t.Attachments,
		&t.Metadata.SenderEmail, &t.Metadata.RecipientEmail, &t.Metadata.IsFromEmail, &messageID,
	)
	if err != nil {
		return nil, err
	}
	if messageID != nil {
		t.Metadata.MessageID = *messageID
	}
	return &t, nil
}
