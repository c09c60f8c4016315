package util

import (
	"crypto/rand"
	"encoding/hex"
)

const idBytes = 12

// NewID returns a random hex id, used for request correlation. Domain
// entities get uuids instead; this stays shorter for log readability.
func NewID() string {
	b := make([]byte, idBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
