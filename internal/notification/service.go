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

// Package notification stores internal employee notifications.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bcem/helpdesk/internal/models"
)

// Errors returned by the notification service.
var (
	ErrNotFound            = errors.New("notification not found")
	ErrInvalidNotification = errors.New("invalid notification")
)

// Notification types.
const (
	TypeInfo    = "info"
	TypeWarning = "warning"
	TypeSuccess = "success"
	TypeError   = "error"
)

var validTypes = map[string]bool{
	TypeInfo:    true,
	TypeWarning: true,
	TypeSuccess: true,
	TypeError:   true,
}

// Query selects notifications for a recipient. Broadcast notifications are
// always included; an empty Recipient lists everything.
type Query struct {
	Recipient  string
	UnreadOnly bool
}

// Store persists notifications. List returns newest first.
type Store interface {
	List(ctx context.Context, q Query) ([]models.Notification, error)
	Insert(ctx context.Context, n *models.Notification) error
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// Service validates and stores notifications.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a notification service over store.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// List returns notifications matching q, newest first.
func (s *Service) List(ctx context.Context, q Query) ([]models.Notification, error) {
	return s.store.List(ctx, q)
}

// Create validates and stores a notification.
func (s *Service) Create(ctx context.Context, in models.Notification) (*models.Notification, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Recipient = strings.TrimSpace(in.Recipient)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))

	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidNotification)
	}
	if in.Type == "" {
		in.Type = TypeInfo
	}
	if !validTypes[in.Type] {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidNotification, in.Type)
	}
	if in.Recipient == "" {
		in.Recipient = models.BroadcastRecipient
	}

	in.ID = uuid.New().String()
	in.Read = false
	in.CreatedAt = s.now()

	if err := s.store.Insert(ctx, &in); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return &in, nil
}

// MarkRead flags a notification as read.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	return s.store.MarkRead(ctx, id)
}

// Delete removes a notification.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
