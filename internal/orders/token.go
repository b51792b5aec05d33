package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NewAccessToken returns the bearer credential for one guest order:
// 32 random bytes, hex-encoded (64 chars). This is the only thing standing
// between the internet and the order, so it comes from crypto/rand.
func NewAccessToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewOrderNumber builds the human-facing order number: creation timestamp in
// milliseconds plus a short upper-cased random suffix. Collisions are
// improbable but not impossible; the orders table carries a unique constraint
// and the repo regenerates on conflict.
func NewOrderNumber(now time.Time) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), strings.ToUpper(hex.EncodeToString(b))), nil
}
