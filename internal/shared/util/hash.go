package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashOwnerID returns a stable, log-safe identifier for an owner ID.
func HashOwnerID(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
