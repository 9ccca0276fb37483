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

// Package mailparse converts raw RFC 5322 / MIME messages into the
// InboundMessage the ingestor works with.
package mailparse

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/bcem/helpdesk/internal/models"
)

// ErrEmptyMessage is returned for zero-length input.
var ErrEmptyMessage = errors.New("empty message")

// recipientHeaders are consulted in order when To is absent (e.g. Bcc delivery).
var recipientHeaders = []string{"To", "Delivered-To", "X-Original-To"}

// Parse decodes a raw message into an InboundMessage.
func Parse(raw []byte) (*models.InboundMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyMessage
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read envelope: %w", err)
	}

	msg := &models.InboundMessage{
		From:        strings.TrimSpace(env.GetHeader("From")),
		To:          recipient(env),
		Subject:     strings.TrimSpace(env.GetHeader("Subject")),
		HTML:        env.HTML,
		Text:        env.Text,
		Attachments: []models.Attachment{},
	}

	for _, p := range env.Attachments {
		msg.Attachments = append(msg.Attachments, toAttachment(p))
	}
	// Inline parts with a filename (pasted screenshots, signatures) are kept
	// as attachments; anonymous inline parts are body content.
	for _, p := range env.Inlines {
		if p.FileName == "" {
			continue
		}
		msg.Attachments = append(msg.Attachments, toAttachment(p))
	}

	return msg, nil
}

// recipient returns the first recipient address of the message.
func recipient(env *enmime.Envelope) string {
	for _, h := range recipientHeaders {
		if env.GetHeader(h) == "" {
			continue
		}
		addrs, err := env.AddressList(h)
		if err == nil && len(addrs) > 0 {
			return addrs[0].Address
		}
		return strings.TrimSpace(env.GetHeader(h))
	}
	return ""
}

func toAttachment(p *enmime.Part) models.Attachment {
	contentType := p.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return models.Attachment{
		Filename:    p.FileName,
		ContentType: contentType,
		Content:     p.Content,
	}
}

// SenderAddress extracts the bare address from a From value. Both
// "Display Name <addr>" and bare "addr" forms are accepted.
func SenderAddress(from string) string {
	start := strings.Index(from, "<")
	if start >= 0 {
		if end := strings.Index(from[start+1:], ">"); end > 0 {
			return strings.TrimSpace(from[start+1 : start+1+end])
		}
	}
	return strings.TrimSpace(from)
}
