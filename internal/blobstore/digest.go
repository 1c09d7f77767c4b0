package blobstore

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

const keyHexLength = sha256.Size * 2

// Digest computes the content key for everything readable from r: the
// lowercase hex SHA-256 of the payload. It returns the key and the number
// of bytes consumed.
func Digest(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// DigestBytes computes the content key for an in-memory payload.
func DigestBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ValidKey reports whether key has the canonical content key form: exactly
// 64 lowercase hex characters, safe to use as a file name.
func ValidKey(key string) bool {
	if len(key) != keyHexLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
