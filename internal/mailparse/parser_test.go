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

package mailparse

import (
	"errors"
	"strings"
	"testing"
)

const plainMessage = "From: Ayse Yilmaz <ayse@example.com>\r\n" +
	"To: destek@firma.com\r\n" +
	"Subject: =?UTF-8?Q?Giri=C5=9F_sorunu?=\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/plain; charset=UTF-8\r\n" +
	"\r\n" +
	"Sisteme giremiyorum.\r\n"

const multipartMessage = "From: ops@example.com\r\n" +
	"To: \"Teknik Destek\" <teknik@firma.com>\r\n" +
	"Subject: Crash report\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"BOUNDARY\"\r\n" +
	"\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/html; charset=UTF-8\r\n" +
	"\r\n" +
	"<p>See attached</p>\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/plain\r\n" +
	"Content-Disposition: attachment; filename=\"log.txt\"\r\n" +
	"\r\n" +
	"panic: nil map\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"invoice.pdf\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"JVBERi0xLjQ=\r\n" +
	"--BOUNDARY--\r\n"

// TestParse_PlainText verifies header decoding and the text body.
func TestParse_PlainText(t *testing.T) {
	msg, err := Parse([]byte(plainMessage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.From != "Ayse Yilmaz <ayse@example.com>" {
		t.Errorf("from = %q", msg.From)
	}
	if msg.To != "destek@firma.com" {
		t.Errorf("to = %q, want destek@firma.com", msg.To)
	}
	if msg.Subject != "Giriş sorunu" {
		t.Errorf("subject = %q, want Giriş sorunu", msg.Subject)
	}
	if !strings.Contains(msg.Text, "Sisteme giremiyorum.") {
		t.Errorf("text = %q", msg.Text)
	}
	if msg.HTML != "" {
		t.Errorf("html = %q, want empty", msg.HTML)
	}
	if len(msg.Attachments) != 0 {
		t.Errorf("expected no attachments, got %d", len(msg.Attachments))
	}
	if msg.Body() != msg.Text {
		t.Error("body should fall back to text")
	}
}

// TestParse_Attachments verifies attachment order, names and content.
func TestParse_Attachments(t *testing.T) {
	msg, err := Parse([]byte(multipartMessage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.To != "teknik@firma.com" {
		t.Errorf("to = %q, want bare address", msg.To)
	}
	if !strings.Contains(msg.HTML, "See attached") {
		t.Errorf("html = %q", msg.HTML)
	}
	if msg.Body() != msg.HTML {
		t.Error("body should prefer html")
	}

	if len(msg.Attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(msg.Attachments))
	}

	log := msg.Attachments[0]
	if log.Filename != "log.txt" {
		t.Errorf("attachment[0] = %q, want log.txt", log.Filename)
	}
	if !strings.Contains(string(log.Content), "panic: nil map") {
		t.Errorf("attachment[0] content = %q", log.Content)
	}

	pdf := msg.Attachments[1]
	if pdf.Filename != "invoice.pdf" {
		t.Errorf("attachment[1] = %q, want invoice.pdf", pdf.Filename)
	}
	if pdf.ContentType != "application/pdf" {
		t.Errorf("attachment[1] content type = %q", pdf.ContentType)
	}
	if string(pdf.Content) != "%PDF-1.4" {
		t.Errorf("attachment[1] content = %q, want decoded base64", pdf.Content)
	}
}

// TestParse_DeliveredToFallback verifies the recipient fallback headers.
func TestParse_DeliveredToFallback(t *testing.T) {
	raw := "From: a@b.com\r\nDelivered-To: fatura@firma.com\r\nSubject: x\r\n\r\nbody\r\n"

	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.To != "fatura@firma.com" {
		t.Errorf("to = %q, want fatura@firma.com", msg.To)
	}
}

// TestParse_Empty verifies empty input is a parse error.
func TestParse_Empty(t *testing.T) {
	for _, raw := range []string{"", "   \r\n"} {
		_, err := Parse([]byte(raw))
		if !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("Parse(%q) error = %v, want ErrEmptyMessage", raw, err)
		}
	}
}

// TestSenderAddress verifies bare-address extraction.
func TestSenderAddress(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{"Name <a@b.com>", "a@b.com"},
		{"\"Yilmaz, Ayse\" <ayse@example.com>", "ayse@example.com"},
		{"<only@example.com>", "only@example.com"},
		{"  bare@example.com  ", "bare@example.com"},
		{"bare@example.com", "bare@example.com"},
		{"Broken <unterminated", "Broken <unterminated"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			if got := SenderAddress(tt.from); got != tt.want {
				t.Errorf("SenderAddress(%q) = %q, want %q", tt.from, got, tt.want)
			}
		})
	}
}
