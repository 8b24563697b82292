package mailwatch

import (
	"strings"
	"testing"
)

const multipartMessage = "From: sender@example.com\r\n" +
	"To: inbox@example.com\r\n" +
	"Subject: quarterly report\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"frontier\"\r\n" +
	"\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Please find the report attached.\r\n" +
	"--frontier\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"report.pdf\"\r\n" +
	"\r\n" +
	"%PDF-1.4 fake\r\n" +
	"--frontier--\r\n"

func TestParseMessageMultipart(t *testing.T) {
	msg, err := parseMessage(strings.NewReader(multipartMessage))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg.Body, "Please find the report attached.") {
		t.Fatalf("unexpected body: %q", msg.Body)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(msg.Attachments))
	}
	att := msg.Attachments[0]
	if att.Name != "report.pdf" {
		t.Fatalf("unexpected attachment name: %q", att.Name)
	}
	if !strings.HasPrefix(string(att.Data), "%PDF-1.4") {
		t.Fatalf("unexpected attachment data: %q", att.Data)
	}
}

func TestParseMessageIgnoresHTMLAlternative(t *testing.T) {
	raw := "From: sender@example.com\r\n" +
		"To: inbox@example.com\r\n" +
		"Subject: meeting notes\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"frontier\"\r\n" +
		"\r\n" +
		"--frontier\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Notes from today.\r\n" +
		"--frontier\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<html><body><p>Notes from today.</p></body></html>\r\n" +
		"--frontier--\r\n"
	msg, err := parseMessage(strings.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg.Body, "Notes from today.") {
		t.Fatalf("plain part missing from body: %q", msg.Body)
	}
	if strings.Contains(msg.Body, "<html>") {
		t.Fatalf("html part leaked into body: %q", msg.Body)
	}
}

func TestParseMessagePlainText(t *testing.T) {
	raw := "From: sender@example.com\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Just a body, no attachments.\r\n"
	msg, err := parseMessage(strings.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg.Body, "Just a body") {
		t.Fatalf("unexpected body: %q", msg.Body)
	}
	if len(msg.Attachments) != 0 {
		t.Fatalf("unexpected attachments: %v", msg.Attachments)
	}
}
