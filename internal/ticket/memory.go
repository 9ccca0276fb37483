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
	"sort"
	"strings"
	"sync"

	"github.com/bcem/helpdesk/internal/models"
)

// MemoryStore keeps tickets in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]models.Ticket
}

// NewMemoryStore creates an empty in-memory ticket store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tickets: make(map[string]models.Ticket)}
}

// Put inserts or replaces a ticket.
func (m *MemoryStore) Put(ctx context.Context, t *models.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tickets[t.ID] = clone(*t)
	return nil
}

// Get retrieves a ticket by id.
func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	t = clone(t)
	return &t, nil
}

// List returns tickets newest first.
func (m *MemoryStore) List(ctx context.Context, f ListFilter) ([]models.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Ticket
	for _, t := range m.tickets {
		if f.Category != "" && t.Category != strings.ToLower(f.Category) {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, clone(t))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Len returns the number of stored tickets.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tickets)
}

func clone(t models.Ticket) models.Ticket {
	t.Attachments = append([]string{}, t.Attachments...)
	return t
}
