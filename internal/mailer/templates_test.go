package mailer

import (
	"strings"
	"testing"
	"time"
)

func TestResetPasswordEmail(t *testing.T) {
	html, err := ResetPasswordEmail("Alice", "http://localhost:3000/reset-password/abc123", 10*time.Minute)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !strings.Contains(html, "Hi Alice,") {
		t.Fatalf("expected greeting in body")
	}
	if !strings.Contains(html, "http://localhost:3000/reset-password/abc123") {
		t.Fatalf("expected reset URL in body")
	}
	if !strings.Contains(html, "10 minutes") {
		t.Fatalf("expected expiry window in body")
	}
}

func TestResetPasswordEmailEscapesName(t *testing.T) {
	html, err := ResetPasswordEmail("<script>", "http://localhost/reset", time.Minute)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected name to be escaped")
	}
}

func TestUserCreatedEmail(t *testing.T) {
	html, err := UserCreatedEmail("Bob", "bob@example.com", "tmp-pass-123", "http://localhost:3000")
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !strings.Contains(html, "bob@example.com") || !strings.Contains(html, "tmp-pass-123") {
		t.Fatalf("expected credentials in body")
	}
}

func TestFormatTTL(t *testing.T) {
	cases := map[time.Duration]string{
		time.Minute:      "1 minute",
		10 * time.Minute: "10 minutes",
		time.Hour:        "1 hour",
		2 * time.Hour:    "2 hours",
		90 * time.Minute: "90 minutes",
	}
	for ttl, expect := range cases {
		if got := formatTTL(ttl); got != expect {
			t.Fatalf("expected %q for %s, got %q", expect, ttl, got)
		}
	}
}
