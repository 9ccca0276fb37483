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

// Package settings manages the support mailbox configuration. Each email
// setting is also a routing rule for the ingestor.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bcem/helpdesk/internal/models"
)

// Errors returned by the settings service.
var (
	ErrNotFound       = errors.New("email setting not found")
	ErrInvalidSetting = errors.New("invalid email setting")
)

// DefaultDepartment is assigned when a setting is saved without one.
const DefaultDepartment = "GENERAL"

// Store persists email settings. List must return settings in ascending
// (CreatedAt, ID) order; that order is the routing tie-break.
type Store interface {
	List(ctx context.Context) ([]models.EmailSetting, error)
	Get(ctx context.Context, id string) (*models.EmailSetting, error)
	Insert(ctx context.Context, s *models.EmailSetting) error
	Update(ctx context.Context, s *models.EmailSetting) error
	Delete(ctx context.Context, id string) error
}

// Service validates and stores email settings.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a settings service over store.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ListRules returns all settings in routing order.
func (s *Service) ListRules(ctx context.Context) ([]models.EmailSetting, error) {
	return s.store.List(ctx)
}

// List returns all settings in routing order.
func (s *Service) List(ctx context.Context) ([]models.EmailSetting, error) {
	return s.store.List(ctx)
}

// Get returns a single setting.
func (s *Service) Get(ctx context.Context, id string) (*models.EmailSetting, error) {
	return s.store.Get(ctx, id)
}

// Create validates and stores a new setting, assigning its id and timestamps.
func (s *Service) Create(ctx context.Context, in models.EmailSetting) (*models.EmailSetting, error) {
	if err := normalize(&in); err != nil {
		return nil, err
	}
	now := s.now()
	in.ID = uuid.New().String()
	in.CreatedAt = now
	in.UpdatedAt = now

	if err := s.store.Insert(ctx, &in); err != nil {
		return nil, fmt.Errorf("insert email setting: %w", err)
	}
	return &in, nil
}

// Update replaces the mutable fields of an existing setting.
func (s *Service) Update(ctx context.Context, id string, in models.EmailSetting) (*models.EmailSetting, error) {
	if err := normalize(&in); err != nil {
		return nil, err
	}

	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.EmailPattern = in.EmailPattern
	existing.Department = in.Department
	existing.DisplayName = in.DisplayName
	existing.Active = in.Active
	existing.UpdatedAt = s.now()

	if err := s.store.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("update email setting %s: %w", id, err)
	}
	return existing, nil
}

// Delete removes a setting.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func normalize(in *models.EmailSetting) error {
	in.EmailPattern = strings.TrimSpace(in.EmailPattern)
	in.Department = strings.ToUpper(strings.TrimSpace(in.Department))
	in.DisplayName = strings.TrimSpace(in.DisplayName)

	if in.EmailPattern == "" {
		return fmt.Errorf("%w: emailPattern is required", ErrInvalidSetting)
	}
	if in.Department == "" {
		in.Department = DefaultDepartment
	}
	return nil
}
