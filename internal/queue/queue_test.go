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
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/bcem/helpdesk/internal/models"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, mr
}

// TestPublisher_TicketCreated verifies the event envelope.
func TestPublisher_TicketCreated(t *testing.T) {
	rdb, mr := newTestRedis(t)
	p := NewPublisher(rdb, "helpdesk:events")

	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	created := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	err := p.PublishTicketCreated(context.Background(), &models.Ticket{
		ID:        "t-1",
		Category:  "technical",
		CreatedAt: created,
		Metadata:  models.TicketMetadata{MessageID: "m-1"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	items, err := mr.List("helpdesk:events")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 event, got %d", len(items))
	}

	var ev TicketEvent
	if err := json.Unmarshal([]byte(items[0]), &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != EventTicketCreated || ev.TicketID != "t-1" || ev.Category != "technical" || ev.MessageID != "m-1" {
		t.Errorf("event = %+v", ev)
	}
	if ev.ID == "" {
		t.Error("event id should be set")
	}
	if !ev.CreatedAt.Equal(created) {
		t.Errorf("createdAt = %v", ev.CreatedAt)
	}
}

// TestDecodeEvent verifies accepted payload forms.
func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		payload string
		want    string
		wantErr bool
	}{
		{`{"messageId":"m-1"}`, "m-1", false},
		{"  m-2 ", "m-2", false},
		{`{"messageId":""}`, "", true},
		{`{"messageId":`, "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			ev, err := decodeEvent(tt.payload)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.payload)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ev.MessageID != tt.want {
				t.Errorf("messageId = %q, want %q", ev.MessageID, tt.want)
			}
		})
	}
}

// TestConsumer_Run verifies events are handled in FIFO order and that
// failures and malformed payloads do not stop the loop.
func TestConsumer_Run(t *testing.T) {
	rdb, _ := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		seen []string
	)
	handler := func(_ context.Context, ev models.InboundEvent) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, ev.MessageID)
		if len(seen) == 3 {
			cancel()
		}
		if ev.MessageID == "m-2" {
			return errors.New("boom")
		}
		return nil
	}

	c := NewConsumer(rdb, "helpdesk:inbound", handler)
	c.blockTimeout = 100 * time.Millisecond

	// LPUSH + BRPOP = FIFO
	for _, payload := range []string{`{"messageId":"m-1"}`, `{"bad json`, "m-2", `{"messageId":"m-3"}`} {
		if err := rdb.LPush(context.Background(), "helpdesk:inbound", payload).Err(); err != nil {
			t.Fatal(err)
		}
	}

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"m-1", "m-2", "m-3"}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}
