package crypto

import (
	"regexp"
	"testing"
)

var (
	tokenPattern  = regexp.MustCompile(`^[0-9a-f]{40}$`)
	digestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

func TestNewResetToken(t *testing.T) {
	token, err := NewResetToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if !tokenPattern.MatchString(token) {
		t.Fatalf("expected 40 hex characters, got %q", token)
	}

	other, err := NewResetToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if token == other {
		t.Fatalf("expected distinct tokens")
	}
}

func TestHashToken(t *testing.T) {
	token, err := NewResetToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	digest := HashToken(token)
	if !digestPattern.MatchString(digest) {
		t.Fatalf("expected 64 hex characters, got %q", digest)
	}
	if digest == token {
		t.Fatalf("digest must not equal the token")
	}
	if HashToken(token) != digest {
		t.Fatalf("expected deterministic digest")
	}
	if HashToken("other") == digest {
		t.Fatalf("expected different digests for different tokens")
	}
}
