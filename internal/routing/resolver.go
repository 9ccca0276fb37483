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

// Package routing resolves the department an inbound message belongs to.
//
// Resolution order:
//  1. The first active email setting, in store order, whose pattern is a
//     case-insensitive substring of the recipient address.
//  2. A keyword heuristic on the recipient address.
//  3. GENERAL.
package routing

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bcem/helpdesk/internal/models"
)

// Departments.
const (
	DepartmentTechnical = "TECHNICAL"
	DepartmentBilling   = "BILLING"
	DepartmentAccount   = "ACCOUNT"
	DepartmentGeneral   = "GENERAL"
)

// fallbackKeywords are checked in order against the recipient address.
var fallbackKeywords = []struct {
	keyword    string
	department string
}{
	{"teknik", DepartmentTechnical},
	{"fatura", DepartmentBilling},
	{"satis", DepartmentAccount},
}

// RuleSource lists routing rules in a deterministic order.
type RuleSource interface {
	ListRules(ctx context.Context) ([]models.EmailSetting, error)
}

// Resolver maps recipient addresses to departments.
type Resolver struct {
	rules RuleSource
}

// NewResolver creates a resolver. A nil source routes by keyword only.
func NewResolver(rules RuleSource) *Resolver {
	return &Resolver{rules: rules}
}

// Resolve returns the department for recipient. It never fails: a rule
// store error is logged and resolution continues with no rules.
func (r *Resolver) Resolve(ctx context.Context, recipient string) string {
	var rules []models.EmailSetting
	if r.rules != nil {
		loaded, err := r.rules.ListRules(ctx)
		if err != nil {
			slog.Warn("routing rules unavailable, using keyword fallback",
				"recipient", recipient,
				"error", err,
			)
		} else {
			rules = loaded
		}
	}

	if dept, ok := MatchRule(rules, recipient); ok {
		return dept
	}
	return Fallback(recipient)
}

// MatchRule returns the department of the first active rule matching
// recipient. Rules with an empty pattern never match.
func MatchRule(rules []models.EmailSetting, recipient string) (string, bool) {
	addr := strings.ToLower(recipient)
	for _, rule := range rules {
		if !rule.Active || rule.EmailPattern == "" {
			continue
		}
		if !strings.Contains(addr, strings.ToLower(rule.EmailPattern)) {
			continue
		}
		if rule.Department == "" {
			return DepartmentGeneral, true
		}
		return strings.ToUpper(rule.Department), true
	}
	return "", false
}

// Fallback applies the keyword heuristic to recipient.
func Fallback(recipient string) string {
	addr := strings.ToLower(recipient)
	for _, k := range fallbackKeywords {
		if strings.Contains(addr, k.keyword) {
			return k.department
		}
	}
	return DepartmentGeneral
}
