package app

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// IPHasher turns client addresses into salted one-way digests so raw IPs are
// never persisted.
type IPHasher struct {
	key []byte
}

func NewIPHasher(salt string) *IPHasher {
	// blake2b keys are capped at 64 bytes; derive a fixed-size key from any salt.
	sum := blake2b.Sum256([]byte(salt))
	return &IPHasher{key: sum[:]}
}

// Hash returns the hex digest of ip, or "" when ip is empty.
func (h *IPHasher) Hash(ip string) string {
	if ip == "" {
		return ""
	}
	mac, err := blake2b.New256(h.key)
	if err != nil {
		return ""
	}
	_, _ = mac.Write([]byte(ip))
	return hex.EncodeToString(mac.Sum(nil))
}
