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

package models

import "time"

// Ticket lifecycle and defaults applied at creation.
const (
	TicketStatusOpen      = "open"
	TicketPriorityMedium  = "medium"
	TicketCreatedByEmail  = "email"
	TicketUntitledSubject = "(No subject)"
)

// TicketMetadata records where an email-originated ticket came from.
type TicketMetadata struct {
	SenderEmail    string `json:"senderEmail"`
	RecipientEmail string `json:"recipientEmail"`
	IsFromEmail    bool   `json:"isFromEmail"`
	MessageID      string `json:"messageId"`
}

// Ticket is a persisted support request.
//
// This struct's JSON serialisation is the shape returned by the API and
// published in ticket.created events.
type Ticket struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Priority    string         `json:"priority"`
	Category    string         `json:"category"`
	CreatedBy   string         `json:"createdBy"`
	AssignedTo  *string        `json:"assignedTo"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	ClosedAt    *time.Time     `json:"closedAt"`
	Attachments []string       `json:"attachments"`
	Metadata    TicketMetadata `json:"metadata"`
}
