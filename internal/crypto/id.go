package crypto

import (
	"crypto/rand"
	"encoding/hex"
)

const sessionIDBytes = 5

// GenerateSessionID returns a short opaque identifier for a session record.
// 10 hex characters; collisions are rejected by the primary key constraint.
func GenerateSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
