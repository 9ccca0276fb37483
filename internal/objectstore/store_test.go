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

package objectstore

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// TestKeys verifies key derivation from message ids.
func TestKeys(t *testing.T) {
	if got := RawMessageKey("m-1"); got != "emails/m-1" {
		t.Errorf("RawMessageKey = %q, want emails/m-1", got)
	}
	if got := AttachmentKey("m-1", "log.txt"); got != "attachments/m-1/log.txt" {
		t.Errorf("AttachmentKey = %q, want attachments/m-1/log.txt", got)
	}
}

// TestPublicURL verifies segment escaping and slash handling.
func TestPublicURL(t *testing.T) {
	tests := []struct {
		base, key, want string
	}{
		{"https://cdn.example.com", "attachments/m-1/log.txt", "https://cdn.example.com/attachments/m-1/log.txt"},
		{"https://cdn.example.com/", "attachments/m-1/log.txt", "https://cdn.example.com/attachments/m-1/log.txt"},
		{"https://cdn.example.com", "attachments/m-1/my file.pdf", "https://cdn.example.com/attachments/m-1/my%20file.pdf"},
	}
	for _, tt := range tests {
		if got := publicURL(tt.base, tt.key); got != tt.want {
			t.Errorf("publicURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}

// TestMemory_RoundTrip verifies put, get, list and delete.
func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("https://files.test")

	url, err := m.Put(ctx, "attachments/m-1/log.txt", []byte("hello"), "text/plain")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "https://files.test/attachments/m-1/log.txt" {
		t.Errorf("url = %q", url)
	}
	if ct := m.ContentType("attachments/m-1/log.txt"); ct != "text/plain" {
		t.Errorf("content type = %q", ct)
	}

	data, err := m.Get(ctx, "attachments/m-1/log.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("data = %q", data)
	}

	m.Put(ctx, "emails/b", []byte("b"), "message/rfc822")
	m.Put(ctx, "emails/a", []byte("a"), "message/rfc822")

	keys, err := m.List(ctx, "emails/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"emails/a", "emails/b"}) {
		t.Errorf("keys = %v", keys)
	}

	if err := m.Delete(ctx, "emails/a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, "emails/a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete error = %v, want ErrNotFound", err)
	}
	if m.Len() != 2 {
		t.Errorf("len = %d, want 2", m.Len())
	}
}

// TestMemory_CopiesData verifies stored bytes are isolated from callers.
func TestMemory_CopiesData(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("")

	buf := []byte("abc")
	m.Put(ctx, "k", buf, "")
	buf[0] = 'x'

	data, _ := m.Get(ctx, "k")
	if string(data) != "abc" {
		t.Errorf("stored data mutated: %q", data)
	}
}

// TestMemory_CanceledContext verifies context errors are returned.
func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory("")
	if _, err := m.Put(ctx, "k", nil, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("put error = %v, want context.Canceled", err)
	}
}
