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

// Package ingest turns an inbound-mail event into a support ticket.
//
// One ingestion runs these steps in order, aborting on the first fatal error:
//  1. Fetch the raw message stored at emails/<messageId>
//  2. Parse it
//  3. Resolve the department (never fatal)
//  4. Extract the sender address
//  5. Store each attachment under attachments/<messageId>/<filename>
//  6. Build the ticket
//  7. Store the ticket
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bcem/helpdesk/internal/mailparse"
	"github.com/bcem/helpdesk/internal/models"
	"github.com/bcem/helpdesk/internal/objectstore"
	"github.com/bcem/helpdesk/internal/routing"
	"github.com/bcem/helpdesk/internal/ticket"
)

// Errors returned by Ingest.
var (
	ErrInvalidEvent = errors.New("invalid event: messageId is required")
	ErrDuplicate    = errors.New("message already ingested")
)

// Deduper claims message ids so redelivered events are not ingested twice.
type Deduper interface {
	IsNew(ctx context.Context, messageID string) (bool, error)
	Forget(ctx context.Context, messageID string) error
}

// EventPublisher announces created tickets.
type EventPublisher interface {
	PublishTicketCreated(ctx context.Context, t *models.Ticket) error
}

// cleanupTimeout bounds the compensating work done after a failed ingestion.
const cleanupTimeout = 10 * time.Second

// Result is returned on successful ingestion.
type Result struct {
	TicketID string `json:"ticketId"`
}

// Config holds dependencies for the ingestor.
type Config struct {
	Objects objectstore.Store
	Tickets ticket.Store
	Router  *routing.Resolver

	// Optional
	Dedup  Deduper
	Events EventPublisher

	// CleanupOrphans deletes attachments already written when a later step
	// fails. When false they are left in place and reported in the log.
	CleanupOrphans bool
}

// Ingestor creates tickets from inbound mail.
type Ingestor struct {
	objects        objectstore.Store
	tickets        ticket.Store
	router         *routing.Resolver
	dedup          Deduper
	events         EventPublisher
	cleanupOrphans bool

	now   func() time.Time
	newID func() string
}

// New creates an ingestor.
func New(cfg Config) *Ingestor {
	router := cfg.Router
	if router == nil {
		router = routing.NewResolver(nil)
	}
	return &Ingestor{
		objects:        cfg.Objects,
		tickets:        cfg.Tickets,
		router:         router,
		dedup:          cfg.Dedup,
		events:         cfg.Events,
		cleanupOrphans: cfg.CleanupOrphans,
		now:            func() time.Time { return time.Now().UTC() },
		newID:          func() string { return uuid.New().String() },
	}
}

// Ingest creates exactly one ticket for the event, or returns an error.
func (in *Ingestor) Ingest(ctx context.Context, event models.InboundEvent) (*Result, error) {
	messageID := strings.TrimSpace(event.MessageID)
	if messageID == "" {
		return nil, ErrInvalidEvent
	}

	if in.dedup != nil {
		isNew, err := in.dedup.IsNew(ctx, messageID)
		if err != nil {
			slog.Warn("dedup check failed, proceeding", "message_id", messageID, "error", err)
		} else if !isNew {
			slog.Info("skipping duplicate message", "message_id", messageID)
			return nil, ErrDuplicate
		}
	}

	t, err := in.ingest(ctx, messageID)
	if err != nil {
		if in.dedup != nil {
			// Release the claim so redelivery can retry, even when ctx is
			// what failed the ingestion.
			cctx, cancel := cleanupContext(ctx)
			if ferr := in.dedup.Forget(cctx, messageID); ferr != nil {
				slog.Warn("dedup release failed", "message_id", messageID, "error", ferr)
			}
			cancel()
		}
		slog.Error("ingestion failed", "message_id", messageID, "error", err)
		return nil, err
	}

	if in.events != nil {
		if err := in.events.PublishTicketCreated(ctx, t); err != nil {
			slog.Error("publish ticket event failed",
				"ticket_id", t.ID,
				"message_id", messageID,
				"error", err,
			)
		}
	}

	return &Result{TicketID: t.ID}, nil
}

// Handle adapts Ingest to the queue consumer. Duplicates are not errors.
func (in *Ingestor) Handle(ctx context.Context, event models.InboundEvent) error {
	_, err := in.Ingest(ctx, event)
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}

func (in *Ingestor) ingest(ctx context.Context, messageID string) (*models.Ticket, error) {
	raw, err := in.objects.Get(ctx, objectstore.RawMessageKey(messageID))
	if err != nil {
		return nil, fmt.Errorf("fetch raw message: %w", err)
	}

	msg, err := mailparse.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	department := in.router.Resolve(ctx, msg.To)
	sender := mailparse.SenderAddress(msg.From)

	slog.Info("processing inbound message",
		"message_id", messageID,
		"sender", sender,
		"recipient", msg.To,
		"department", department,
		"attachments", len(msg.Attachments),
	)

	keys := attachmentKeys(messageID, msg.Attachments)
	urls, err := in.storeAttachments(ctx, messageID, keys, msg.Attachments)
	if err != nil {
		return nil, err
	}

	t := in.buildTicket(messageID, msg, department, sender, urls)

	if err := in.tickets.Put(ctx, t); err != nil {
		in.releaseAttachments(ctx, messageID, keys)
		return nil, fmt.Errorf("store ticket: %w", err)
	}

	slog.Info("ticket created",
		"ticket_id", t.ID,
		"message_id", messageID,
		"category", t.Category,
	)

	return t, nil
}

// storeAttachments writes attachments in order under keys. On failure the
// ones already written are released and the error is returned.
func (in *Ingestor) storeAttachments(ctx context.Context, messageID string, keys []string, atts []models.Attachment) ([]string, error) {
	urls := make([]string, 0, len(atts))
	for i, a := range atts {
		url, err := in.objects.Put(ctx, keys[i], a.Content, a.ContentType)
		if err != nil {
			in.releaseAttachments(ctx, messageID, keys[:i])
			return nil, fmt.Errorf("store attachment %q: %w", a.Filename, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// releaseAttachments handles the written attachments of a failed ingestion.
// Deletes run detached from ctx so a cancelled request still cleans up.
func (in *Ingestor) releaseAttachments(ctx context.Context, messageID string, keys []string) {
	if len(keys) == 0 {
		return
	}

	if !in.cleanupOrphans {
		slog.Warn("orphaned attachments left in storage",
			"message_id", messageID,
			"keys", keys,
		)
		return
	}

	cctx, cancel := cleanupContext(ctx)
	defer cancel()

	for _, key := range keys {
		if err := in.objects.Delete(cctx, key); err != nil {
			slog.Warn("orphaned attachment cleanup failed",
				"message_id", messageID,
				"key", key,
				"error", err,
			)
		}
	}
}

// cleanupContext keeps ctx's values but not its cancellation, bounded by
// cleanupTimeout.
func cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
}

func (in *Ingestor) buildTicket(messageID string, msg *models.InboundMessage, department, sender string, urls []string) *models.Ticket {
	now := in.now()

	title := msg.Subject
	if title == "" {
		title = models.TicketUntitledSubject
	}

	return &models.Ticket{
		ID:          in.newID(),
		Title:       title,
		Description: msg.Body(),
		Status:      models.TicketStatusOpen,
		Priority:    models.TicketPriorityMedium,
		Category:    strings.ToLower(department),
		CreatedBy:   models.TicketCreatedByEmail,
		AssignedTo:  nil,
		CreatedAt:   now,
		UpdatedAt:   now,
		ClosedAt:    nil,
		Attachments: urls,
		Metadata: models.TicketMetadata{
			SenderEmail:    sender,
			RecipientEmail: msg.To,
			IsFromEmail:    true,
			MessageID:      messageID,
		},
	}
}

// attachmentKeys returns one storage key per attachment. Repeated names get
// a numeric suffix before the extension (log.txt, log-2.txt) so no
// attachment overwrites another.
func attachmentKeys(messageID string, atts []models.Attachment) []string {
	keys := make([]string, len(atts))
	used := make(map[string]bool, len(atts))
	for i, a := range atts {
		name := attachmentName(a.Filename, i)
		if used[name] {
			ext := path.Ext(name)
			base := strings.TrimSuffix(name, ext)
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s-%d%s", base, n, ext)
				if !used[candidate] {
					name = candidate
					break
				}
			}
		}
		used[name] = true
		keys[i] = objectstore.AttachmentKey(messageID, name)
	}
	return keys
}

// attachmentName keeps attachment keys inside the message's namespace.
func attachmentName(filename string, index int) string {
	name := strings.TrimSpace(filename)
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		return fmt.Sprintf("attachment-%d", index+1)
	}
	return name
}
