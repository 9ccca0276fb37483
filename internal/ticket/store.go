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

// Package ticket persists support tickets in Postgres, with an in-memory
// implementation for mock mode.
package ticket

import (
	"context"
	"errors"

	"github.com/bcem/helpdesk/internal/models"
)

// ErrNotFound is returned when no ticket matches.
var ErrNotFound = errors.New("ticket not found")

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Category string
	Status   string
	Limit    int
}

// Store is the ticket persistence contract.
type Store interface {
	// Put inserts or replaces the ticket keyed by its ID.
	Put(ctx context.Context, t *models.Ticket) error
	Get(ctx context.Context, id string) (*models.Ticket, error)
	// List returns tickets newest first.
	List(ctx context.Context, f ListFilter) ([]models.Ticket, error)
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
