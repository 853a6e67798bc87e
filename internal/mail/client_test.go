package mail

import (
	"strings"
	"testing"
)

func crlf(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n"))
}

func TestParseBodyMultipart(t *testing.T) {
	raw := crlf(
		"From: shop@example.com",
		"To: jane@example.com",
		"Subject: Your receipt",
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=frontier",
		"",
		"--frontier",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Thanks for your purchase.",
		"--frontier",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>Thanks for your purchase.</p>",
		"--frontier",
		"Content-Type: application/pdf",
		"Content-Disposition: attachment; filename=\"receipt.pdf\"",
		"",
		"JVBERi0xLjQ=",
		"--frontier--",
		"",
	)

	text, html, parts := parseBody(raw)

	if !strings.Contains(text, "Thanks for your purchase.") {
		t.Errorf("text body = %q, want purchase note", text)
	}
	if !strings.Contains(html, "<p>Thanks for your purchase.</p>") {
		t.Errorf("html body = %q, want purchase note", html)
	}

	if len(parts) != 1 {
		t.Fatalf("parts = %d, want 1", len(parts))
	}
	part := parts[0]
	if part.ContentType != "application" || part.ContentSubtype != "pdf" {
		t.Errorf("part content type = %s/%s, want application/pdf", part.ContentType, part.ContentSubtype)
	}
	if part.Filename != "receipt.pdf" {
		t.Errorf("part filename = %q, want receipt.pdf", part.Filename)
	}
	if !part.IsPDF() {
		t.Error("part should be recognized as PDF")
	}

	// The attachment body must be preserved as delivered so the decoder
	// sees the transport encoding untouched.
	if got := strings.TrimSpace(string(part.RawData)); got != "JVBERi0xLjQ=" {
		t.Errorf("part raw data = %q, want the literal base64 text", got)
	}
}

func TestParseBodyPlainFallback(t *testing.T) {
	// Not a parseable MIME structure at all
	raw := []byte("just some bytes, no headers")

	text, html, parts := parseBody(raw)

	if text != string(raw) {
		t.Errorf("text body = %q, want raw payload", text)
	}
	if html != "" || len(parts) != 0 {
		t.Errorf("html = %q, parts = %v; want empty", html, parts)
	}
}

func TestSplitContentType(t *testing.T) {
	tests := []struct {
		input       string
		wantType    string
		wantSubtype string
	}{
		{"application/pdf", "application", "pdf"},
		{"text/plain", "text", "plain"},
		{"weird", "weird", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gotType, gotSubtype := splitContentType(tt.input)
			if gotType != tt.wantType || gotSubtype != tt.wantSubtype {
				t.Errorf("splitContentType(%q) = %s/%s, want %s/%s",
					tt.input, gotType, gotSubtype, tt.wantType, tt.wantSubtype)
			}
		})
	}
}
