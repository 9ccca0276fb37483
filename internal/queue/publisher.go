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

// Package queue moves events through Redis lists: inbound-mail events are
// consumed from one list and ticket lifecycle events are published to another.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bcem/helpdesk/internal/models"
)

// EventTicketCreated is the type of the event published after ingestion.
const EventTicketCreated = "ticket.created"

// TicketEvent is the envelope pushed to the events list.
type TicketEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TicketID  string    `json:"ticketId"`
	Category  string    `json:"category"`
	MessageID string    `json:"messageId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Publisher sends ticket events to a Redis list.
type Publisher struct {
	rdb       *redis.Client
	queueName string
}

// NewPublisher creates a new Redis publisher targeting the specified list.
func NewPublisher(rdb *redis.Client, queueName string) *Publisher {
	return &Publisher{
		rdb:       rdb,
		queueName: queueName,
	}
}

// PublishTicketCreated announces a newly created ticket. Consumers pop from
// the opposite end (RPOP/BRPOP) to read events in order.
func (p *Publisher) PublishTicketCreated(ctx context.Context, t *models.Ticket) error {
	event := TicketEvent{
		ID:        uuid.New().String(),
		Type:      EventTicketCreated,
		TicketID:  t.ID,
		Category:  t.Category,
		MessageID: t.Metadata.MessageID,
		CreatedAt: t.CreatedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ticket event: %w", err)
	}

	if err := p.rdb.LPush(ctx, p.queueName, string(data)).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}

	slog.Info("published ticket event",
		"event_id", event.ID,
		"ticket_id", t.ID,
		"category", t.Category,
		"queue", p.queueName,
	)

	return nil
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
