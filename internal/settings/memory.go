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
	"sort"
	"sync"

	"github.com/bcem/helpdesk/internal/models"
)

// MemoryStore keeps email settings in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	settings map[string]models.EmailSetting
}

// NewMemoryStore creates an in-memory store seeded with the given settings.
func NewMemoryStore(seed ...models.EmailSetting) *MemoryStore {
	m := &MemoryStore{settings: make(map[string]models.EmailSetting)}
	for _, s := range seed {
		m.settings[s.ID] = s
	}
	return m
}

// List returns settings ordered by creation time, then id.
func (m *MemoryStore) List(ctx context.Context) ([]models.EmailSetting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.EmailSetting, 0, len(m.settings))
	for _, s := range m.settings {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Get returns a setting by id.
func (m *MemoryStore) Get(ctx context.Context, id string) (*models.EmailSetting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Insert adds a setting.
func (m *MemoryStore) Insert(ctx context.Context, s *models.EmailSetting) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings[s.ID] = *s
	return nil
}

// Update replaces an existing setting.
func (m *MemoryStore) Update(ctx context.Context, s *models.EmailSetting) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.settings[s.ID]; !ok {
		return ErrNotFound
	}
	m.settings[s.ID] = *s
	return nil
}

// Delete removes a setting.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.settings[id]; !ok {
		return ErrNotFound
	}
	delete(m.settings, id)
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
