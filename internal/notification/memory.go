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
	"sort"
	"sync"

	"github.com/bcem/helpdesk/internal/models"
)

// MemoryStore keeps notifications in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]models.Notification
}

// NewMemoryStore creates an empty in-memory notification store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]models.Notification)}
}

// List returns notifications newest first.
func (m *MemoryStore) List(ctx context.Context, q Query) ([]models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Notification
	for _, n := range m.items {
		if q.Recipient != "" && n.Recipient != q.Recipient && n.Recipient != models.BroadcastRecipient {
			continue
		}
		if q.UnreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Insert adds a notification.
func (m *MemoryStore) Insert(ctx context.Context, n *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[n.ID] = *n
	return nil
}

// MarkRead flags a notification as read.
func (m *MemoryStore) MarkRead(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	n.Read = true
	m.items[id] = n
	return nil
}

// Delete removes a notification.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
