// Package sha256 provides the digest used for lead id derivation.
//
// SHA-256 with lowercase hex encoding is the fixed digest choice: ids
// must stay stable across deployments, so the algorithm is pinned here
// rather than configurable.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements leads.Hasher using SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a 64-character hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
