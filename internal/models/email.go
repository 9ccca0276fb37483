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

// Package models defines the data structures shared across the helpdesk service.
package models

// InboundEvent is the notification emitted by the mail-receipt trigger once a
// raw message has been stored under emails/<MessageID>.
type InboundEvent struct {
	MessageID string `json:"messageId"`
}

// Attachment is a file carried by an inbound message.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"-"`
}

// InboundMessage is the parsed form of a raw inbound email. It lives only for
// the duration of a single ingestion.
type InboundMessage struct {
	From        string       `json:"from"`
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html,omitempty"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments"`
}

// Body returns the HTML body when present, else the plain-text body.
func (m *InboundMessage) Body() string {
	if m.HTML != "" {
		return m.HTML
	}
	return m.Text
}
