package crypto

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if hash == "secret123" {
		t.Fatalf("hash must not equal plaintext")
	}
	if err := CheckPassword(hash, "secret123"); err != nil {
		t.Fatalf("expected password to match")
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected password mismatch")
	}
}

func TestHashPasswordDefaultCost(t *testing.T) {
	hash, err := HashPassword("secret123", 0)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("cost error: %v", err)
	}
	if cost != DefaultBcryptCost {
		t.Fatalf("expected cost %d, got %d", DefaultBcryptCost, cost)
	}
}

func TestGeneratePassword(t *testing.T) {
	password, err := GeneratePassword(12)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if len(password) != 12 {
		t.Fatalf("expected 12 characters, got %d", len(password))
	}
	for _, char := range password {
		if !strings.ContainsRune(passwordCharset, char) {
			t.Fatalf("unexpected character %q", char)
		}
	}

	other, err := GeneratePassword(12)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if password == other {
		t.Fatalf("expected distinct generated passwords")
	}
}
