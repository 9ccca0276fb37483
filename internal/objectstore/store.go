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

// Package objectstore stores raw inbound messages and ticket attachments.
// Three backends are provided: Amazon S3 (or any S3-compatible store), an
// HTTP object gateway authenticated with OAuth2 client credentials, and an
// in-memory store used in mock mode and tests.
package objectstore

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Key prefixes.
const (
	RawMessagePrefix = "emails/"
	AttachmentPrefix = "attachments/"
)

// Store is the object storage contract used by the ingestor.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes data under key and returns a publicly addressable URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// List returns keys beginning with prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// RawMessageKey returns the key under which the mail-receipt trigger stores
// the raw message.
func RawMessageKey(messageID string) string {
	return RawMessagePrefix + messageID
}

// AttachmentKey returns the key for an attachment of a message.
func AttachmentKey(messageID, filename string) string {
	return AttachmentPrefix + messageID + "/" + filename
}

// publicURL joins a base URL and an object key, escaping each path segment.
func publicURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
