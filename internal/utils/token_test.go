package utils

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	_ = os.Setenv("SESSION_SECRET", "sonore_test_session_secret_key_1234567890")
	os.Exit(m.Run())
}

func TestMintAndVerifySessionToken(t *testing.T) {
	token, err := MintSessionToken(42)
	if err != nil {
		t.Fatalf("MintSessionToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	userID, err := VerifySessionToken(token)
	if err != nil {
		t.Fatalf("VerifySessionToken: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user 42, got %d", userID)
	}
}

func TestMintSessionTokenRejectsInvalidUser(t *testing.T) {
	if _, err := MintSessionToken(0); err == nil {
		t.Fatal("expected error for user id 0")
	}
	if _, err := MintSessionToken(-5); err == nil {
		t.Fatal("expected error for negative user id")
	}
}

func TestVerifySessionTokenRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"not.a.token",
		"eyJhbGciOiJIUzI1NiJ9.e30.invalidsignature",
	}
	for _, raw := range cases {
		if _, err := VerifySessionToken(raw); err == nil {
			t.Fatalf("expected error for token %q", raw)
		}
	}
}

func TestVerifySessionTokenRejectsTampering(t *testing.T) {
	token, err := MintSessionToken(7)
	if err != nil {
		t.Fatalf("MintSessionToken: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := VerifySessionToken(tampered); err == nil {
		t.Fatal("expected error for tampered token")
	}
}

func TestHashPasswordNeverStoresPlaintext(t *testing.T) {
	hash, err := HashPassword("Secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Secret123" {
		t.Fatal("hash must differ from plaintext")
	}
	if !CheckPasswordHash("Secret123", hash) {
		t.Fatal("expected matching password to verify")
	}
	if CheckPasswordHash("secret123", hash) {
		t.Fatal("expected non-matching password to fail")
	}
}
