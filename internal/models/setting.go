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

// EmailSetting is a configured support mailbox. It doubles as the routing
// rule the ingestor consults: a recipient address containing EmailPattern
// (case-insensitive) is routed to Department.
type EmailSetting struct {
	ID           string    `json:"id"`
	EmailPattern string    `json:"emailPattern"`
	Department   string    `json:"department"`
	DisplayName  string    `json:"displayName,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
