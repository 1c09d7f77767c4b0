package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minAccessCodeLength = 4
	maxAccessCodeLength = 72 // bcrypt input limit
)

// ValidateAccessCode checks minimal access code requirements.
func ValidateAccessCode(code string) error {
	if len(code) < minAccessCodeLength {
		return fmt.Errorf("access code must be at least %d characters", minAccessCodeLength)
	}
	if len(code) > maxAccessCodeLength {
		return fmt.Errorf("access code must be at most %d characters", maxAccessCodeLength)
	}
	return nil
}

// HashAccessCode hashes one plaintext access code for persistent storage.
// The plaintext is never stored.
func HashAccessCode(code string) (string, error) {
	if err := ValidateAccessCode(code); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyAccessCode verifies a candidate code against a stored bcrypt hash.
func VerifyAccessCode(codeHash, candidate string) bool {
	if strings.TrimSpace(codeHash) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(codeHash), []byte(candidate)) == nil
}
