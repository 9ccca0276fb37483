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

package replay

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bcem/helpdesk/internal/ingest"
	"github.com/bcem/helpdesk/internal/models"
	"github.com/bcem/helpdesk/internal/objectstore"
)

// --- Mock ingestor ---

type mockIngester struct {
	mu       sync.Mutex
	seen     []string
	failures map[string]error
}

func (m *mockIngester) Ingest(_ context.Context, ev models.InboundEvent) (*ingest.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, ev.MessageID)
	if err := m.failures[ev.MessageID]; err != nil {
		return nil, err
	}
	return &ingest.Result{TicketID: "t-" + ev.MessageID}, nil
}

type failingLister struct{}

func (failingLister) List(context.Context, string) ([]string, error) {
	return nil, errors.New("bucket unavailable")
}

func seedObjects(t *testing.T, keys ...string) *objectstore.Memory {
	t.Helper()
	store := objectstore.NewMemory("")
	for _, k := range keys {
		if _, err := store.Put(context.Background(), k, []byte("raw"), "message/rfc822"); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

// TestRun_CountsOutcomes verifies every raw message is attempted in key order
// and that failures do not stop the run.
func TestRun_CountsOutcomes(t *testing.T) {
	store := seedObjects(t,
		"emails/m-3", "emails/m-1", "emails/m-2", "emails/m-4",
		"attachments/m-1/log.txt",
	)
	ing := &mockIngester{failures: map[string]error{
		"m-2": ingest.ErrDuplicate,
		"m-3": errors.New("parse message: boom"),
	}}

	r := NewRunner(RunnerConfig{Objects: store, Ingestor: ing})
	res, err := r.Run(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"m-1", "m-2", "m-3", "m-4"}
	if len(ing.seen) != len(want) {
		t.Fatalf("seen = %v, want %v", ing.seen, want)
	}
	for i := range want {
		if ing.seen[i] != want[i] {
			t.Errorf("seen[%d] = %q, want %q", i, ing.seen[i], want[i])
		}
	}

	if res.Listed != 4 || res.Ingested != 2 || res.Skipped != 1 || res.Errors != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.Last != "m-4" {
		t.Errorf("last = %q", res.Last)
	}
}

// TestRun_AfterAndLimit verifies resumption and the limit.
func TestRun_AfterAndLimit(t *testing.T) {
	store := seedObjects(t, "emails/a", "emails/b", "emails/c", "emails/d")
	ing := &mockIngester{}

	r := NewRunner(RunnerConfig{Objects: store, Ingestor: ing})
	res, err := r.Run(context.Background(), Request{After: "a", Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ing.seen) != 2 || ing.seen[0] != "b" || ing.seen[1] != "c" {
		t.Errorf("seen = %v, want [b c]", ing.seen)
	}
	if res.Listed != 3 || res.Ingested != 2 {
		t.Errorf("result = %+v", res)
	}
}

// TestRun_ListFailure verifies a listing error aborts the run.
func TestRun_ListFailure(t *testing.T) {
	r := NewRunner(RunnerConfig{Objects: failingLister{}, Ingestor: &mockIngester{}})
	if _, err := r.Run(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
}

// TestRun_Cancelled verifies cancellation stops before any ingestion.
func TestRun_Cancelled(t *testing.T) {
	store := seedObjects(t, "emails/a", "emails/b")
	ing := &mockIngester{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(RunnerConfig{Objects: store, Ingestor: ing})
	_, err := r.Run(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(ing.seen) != 0 {
		t.Errorf("seen = %v, want none", ing.seen)
	}
}
