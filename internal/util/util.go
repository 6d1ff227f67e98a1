// Package util provides content hashing and id helpers.
package util

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// NewID returns a random record id.
func NewID() string {
	return uuid.NewString()
}
