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

package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/bcem/helpdesk/internal/models"
)

type staticRules struct {
	rules []models.EmailSetting
	err   error
	calls int
}

func (s *staticRules) ListRules(context.Context) ([]models.EmailSetting, error) {
	s.calls++
	return s.rules, s.err
}

// TestMatchRule verifies first-active-match semantics.
func TestMatchRule(t *testing.T) {
	rules := []models.EmailSetting{
		{EmailPattern: "destek@", Department: "support", Active: false},
		{EmailPattern: "", Department: "everything", Active: true},
		{EmailPattern: "DESTEK@FIRMA", Department: "Customer Care", Active: true},
		{EmailPattern: "destek", Department: "second", Active: true},
		{EmailPattern: "noname@", Department: "", Active: true},
	}

	tests := []struct {
		recipient string
		want      string
		wantOK    bool
	}{
		{"destek@firma.com", "CUSTOMER CARE", true},
		{"Destek@Firma.com", "CUSTOMER CARE", true},
		{"destek@other.com", "SECOND", true},
		{"noname@firma.com", DepartmentGeneral, true},
		{"info@firma.com", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.recipient, func(t *testing.T) {
			got, ok := MatchRule(rules, tt.recipient)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("MatchRule(%q) = (%q, %v), want (%q, %v)", tt.recipient, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// TestFallback verifies the keyword heuristic and its precedence.
func TestFallback(t *testing.T) {
	tests := []struct {
		recipient string
		want      string
	}{
		{"teknik@firma.com", DepartmentTechnical},
		{"TEKNIK-destek@firma.com", DepartmentTechnical},
		{"fatura@firma.com", DepartmentBilling},
		{"satis@firma.com", DepartmentAccount},
		{"teknik.fatura@firma.com", DepartmentTechnical},
		{"fatura.satis@firma.com", DepartmentBilling},
		{"destek@firma.com", DepartmentGeneral},
		{"", DepartmentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.recipient, func(t *testing.T) {
			if got := Fallback(tt.recipient); got != tt.want {
				t.Errorf("Fallback(%q) = %q, want %q", tt.recipient, got, tt.want)
			}
		})
	}
}

// TestResolve_RuleBeatsKeyword verifies configured rules take precedence.
func TestResolve_RuleBeatsKeyword(t *testing.T) {
	src := &staticRules{rules: []models.EmailSetting{
		{EmailPattern: "teknik@", Department: "infra", Active: true},
	}}
	r := NewResolver(src)

	if got := r.Resolve(context.Background(), "teknik@firma.com"); got != "INFRA" {
		t.Errorf("department = %q, want INFRA", got)
	}
	if src.calls != 1 {
		t.Errorf("ListRules calls = %d, want 1", src.calls)
	}
}

// TestResolve_StoreErrorFallsBack verifies a rule store failure is not fatal.
func TestResolve_StoreErrorFallsBack(t *testing.T) {
	src := &staticRules{
		rules: []models.EmailSetting{{EmailPattern: "fatura", Department: "ignored", Active: true}},
		err:   errors.New("connection refused"),
	}
	r := NewResolver(src)

	if got := r.Resolve(context.Background(), "fatura@firma.com"); got != DepartmentBilling {
		t.Errorf("department = %q, want BILLING", got)
	}
}

// TestResolve_NilSource verifies keyword-only routing.
func TestResolve_NilSource(t *testing.T) {
	r := NewResolver(nil)
	if got := r.Resolve(context.Background(), "satis@firma.com"); got != DepartmentAccount {
		t.Errorf("department = %q, want ACCOUNT", got)
	}
}
