package security

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Hasher implements ports.SecretHasher with SHA-256.
type Hasher struct{}

func NewHasher() Hasher { return Hasher{} }

// ScopedHash maps (raw secret, tenant domain) to a lookup key. Each component
// is length-prefixed before hashing so that distinct pairs can never collide
// by shifting bytes across the component boundary (("ab","c") vs ("a","bc")).
func (Hasher) ScopedHash(raw, domain string) string {
	h := sha256.New()
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], uint64(len(raw)))
	h.Write(buf[:n])
	h.Write([]byte(raw))
	n = binary.PutUvarint(buf[:], uint64(len(domain)))
	h.Write(buf[:n])
	h.Write([]byte(domain))
	return hex.EncodeToString(h.Sum(nil))
}

// HashToken is the unscoped digest for secrets that are already globally
// unique, e.g. refresh tokens and tenant API keys.
func (Hasher) HashToken(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
