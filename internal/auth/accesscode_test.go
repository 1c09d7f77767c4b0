package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyAccessCode(t *testing.T) {
	hash, err := HashAccessCode("open sesame")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "open sesame" {
		t.Fatal("access code stored in plaintext")
	}

	if !VerifyAccessCode(hash, "open sesame") {
		t.Fatal("correct code rejected")
	}
	if VerifyAccessCode(hash, "wrong code") {
		t.Fatal("wrong code accepted")
	}
	if VerifyAccessCode("", "open sesame") {
		t.Fatal("empty hash accepted")
	}
}

func TestValidateAccessCode(t *testing.T) {
	if err := ValidateAccessCode("abc"); err == nil {
		t.Fatal("short code accepted")
	}
	if err := ValidateAccessCode(strings.Repeat("x", 100)); err == nil {
		t.Fatal("overlong code accepted")
	}
	if err := ValidateAccessCode("good-code"); err != nil {
		t.Fatalf("valid code rejected: %v", err)
	}
}
