package lockmgr

import (
	"crypto/rand"
	"encoding/hex"
)

const (
	byteLength = 32
)

// generateOwnerID creates a new unique owner ID
// The owner ID is 256 random bits, hex encoded so it can be stored in a text file.
func generateOwnerID() ([]byte, error) {
	randomBytes := make([]byte, byteLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, err
	}
	ownerID := make([]byte, hex.EncodedLen(byteLength))
	hex.Encode(ownerID, randomBytes)
	return ownerID, nil
}
