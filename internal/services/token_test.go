package services

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := IssueToken(42, secret, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	userID, err := ParseTokenSubject(token, secret)
	if err != nil {
		t.Fatalf("ParseTokenSubject: %v", err)
	}
	if userID != 42 {
		t.Fatalf("subject = %d, want 42", userID)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := IssueToken(42, []byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := ParseTokenSubject(token, []byte("other-secret")); err == nil {
		t.Fatalf("expected signature verification to fail")
	}
}

func TestTokenExpired(t *testing.T) {
	token, err := IssueToken(42, []byte("test-secret"), -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := ParseTokenSubject(token, []byte("test-secret")); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestTokenGarbage(t *testing.T) {
	if _, err := ParseTokenSubject("not-a-token", []byte("test-secret")); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}
}
