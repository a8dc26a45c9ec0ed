package random

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// SecureToken returns a URL-safe token of exactly length characters drawn
// from crypto/rand. Each character carries 6 bits, so a 32-character
// invitation token holds 192 bits.
func SecureToken(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", length)
	}
	buf := make([]byte, (length*6+7)/8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:length], nil
}
