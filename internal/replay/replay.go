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

// Package replay re-ingests raw messages already sitting in object storage.
// It is used to seed a new deployment or to recover after an outage of the
// inbound queue.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bcem/helpdesk/internal/ingest"
	"github.com/bcem/helpdesk/internal/models"
	"github.com/bcem/helpdesk/internal/objectstore"
)

// Lister enumerates object keys.
type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// Ingester creates a ticket from an inbound-mail event.
type Ingester interface {
	Ingest(ctx context.Context, event models.InboundEvent) (*ingest.Result, error)
}

// Request defines the scope of a replay run.
type Request struct {
	// After skips message ids that sort at or before it, so an interrupted
	// run can be resumed from the last id it logged.
	After string
	// Limit caps the number of messages attempted. Zero means no limit.
	Limit int
}

// Result summarises a completed replay run.
type Result struct {
	Listed   int
	Ingested int
	Skipped  int // duplicates
	Errors   int
	Last     string // last message id attempted
	Elapsed  time.Duration
}

// Runner performs a replay.
type Runner struct {
	objects  Lister
	ingestor Ingester
	delay    time.Duration // pause between messages
}

// RunnerConfig holds dependencies for the replay runner.
type RunnerConfig struct {
	Objects  Lister
	Ingestor Ingester
	Delay    time.Duration
}

// NewRunner creates a replay runner.
func NewRunner(cfg RunnerConfig) *Runner {
	return &Runner{
		objects:  cfg.Objects,
		ingestor: cfg.Ingestor,
		delay:    cfg.Delay,
	}
}

// Run ingests every raw message in key order. Per-message failures are
// counted and logged; only a listing failure or cancellation aborts the run.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	keys, err := r.objects.List(ctx, objectstore.RawMessagePrefix)
	if err != nil {
		return nil, fmt.Errorf("list raw messages: %w", err)
	}

	ids := messageIDs(keys, req.After)
	result := &Result{Listed: len(ids)}

	slog.Info("starting replay",
		"messages", len(ids),
		"after", req.After,
		"limit", req.Limit,
	)

	for i, id := range ids {
		if req.Limit > 0 && i >= req.Limit {
			break
		}
		if i > 0 && r.delay > 0 {
			select {
			case <-ctx.Done():
				result.Elapsed = time.Since(start)
				return result, ctx.Err()
			case <-time.After(r.delay):
			}
		}
		if err := ctx.Err(); err != nil {
			result.Elapsed = time.Since(start)
			return result, err
		}

		result.Last = id
		res, err := r.ingestor.Ingest(ctx, models.InboundEvent{MessageID: id})
		switch {
		case errors.Is(err, ingest.ErrDuplicate):
			result.Skipped++
		case err != nil:
			slog.Warn("replay: ingest failed", "message_id", id, "error", err)
			result.Errors++
		default:
			slog.Debug("replay: ticket created", "message_id", id, "ticket_id", res.TicketID)
			result.Ingested++
		}
	}

	result.Elapsed = time.Since(start)

	slog.Info("replay complete",
		"ingested", result.Ingested,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"last", result.Last,
		"elapsed", result.Elapsed,
	)

	return result, nil
}

// messageIDs strips the raw-message prefix and drops ids at or before after.
// Keys are expected in lexical order.
func messageIDs(keys []string, after string) []string {
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		id := strings.TrimPrefix(k, objectstore.RawMessagePrefix)
		if id == "" || strings.Contains(id, "/") {
			continue
		}
		if after != "" && id <= after {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
