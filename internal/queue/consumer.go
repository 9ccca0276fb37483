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

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bcem/helpdesk/internal/models"
)

// Handler processes one inbound-mail event.
type Handler func(ctx context.Context, event models.InboundEvent) error

// Consumer pops inbound-mail events from a Redis list, one at a time.
type Consumer struct {
	rdb          *redis.Client
	queueName    string
	handle       Handler
	blockTimeout time.Duration
	errorBackoff time.Duration
}

// NewConsumer creates a consumer reading from queueName.
func NewConsumer(rdb *redis.Client, queueName string, handle Handler) *Consumer {
	return &Consumer{
		rdb:          rdb,
		queueName:    queueName,
		handle:       handle,
		blockTimeout: 5 * time.Second,
		errorBackoff: time.Second,
	}
}

// Run blocks until ctx is cancelled. Handler errors are logged; the event is
// not requeued (redelivery belongs to the producer).
func (c *Consumer) Run(ctx context.Context) {
	slog.Info("inbound consumer started", "queue", c.queueName)
	defer slog.Info("inbound consumer stopped", "queue", c.queueName)

	for {
		if ctx.Err() != nil {
			return
		}

		result, err := c.rdb.BRPop(ctx, c.blockTimeout, c.queueName).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("inbound queue pop failed", "queue", c.queueName, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.errorBackoff):
			}
			continue
		}

		// BRPOP returns [key, value]
		if len(result) != 2 {
			continue
		}
		c.process(ctx, result[1])
	}
}

// process decodes and handles a single payload.
func (c *Consumer) process(ctx context.Context, payload string) {
	event, err := decodeEvent(payload)
	if err != nil {
		slog.Warn("dropping malformed inbound event",
			"queue", c.queueName,
			"payload_len", len(payload),
			"error", err,
		)
		return
	}

	if err := c.handle(ctx, event); err != nil {
		slog.Error("inbound event failed",
			"message_id", event.MessageID,
			"error", err,
		)
	}
}

// decodeEvent accepts either a JSON object {"messageId": "..."} or a bare
// message id.
func decodeEvent(payload string) (models.InboundEvent, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return models.InboundEvent{}, errors.New("empty payload")
	}

	if !strings.HasPrefix(payload, "{") {
		return models.InboundEvent{MessageID: payload}, nil
	}

	var event models.InboundEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return models.InboundEvent{}, err
	}
	if event.MessageID == "" {
		return models.InboundEvent{}, errors.New("missing messageId")
	}
	return event, nil
}
