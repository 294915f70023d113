package document

import (
	"crypto/sha512"
	"encoding/hex"
	"time"
)

// alphabet is the 62-symbol identifier alphabet. Identifier characters are
// drawn from it and nothing else.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// IdentifierLength is the fixed width of a verification identifier.
const IdentifierLength = 8

const pdfMagic = "%PDF"

// Hash returns the SHA-512 hex digest of the raw file bytes. No
// normalization: byte-identical files collide, byte-different files do not.
func Hash(data []byte) string {
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:])
}

// ValidatePDF reports whether data starts with the %PDF magic signature.
// Fails closed: anything shorter than the signature is rejected.
func ValidatePDF(data []byte) bool {
	if len(data) < len(pdfMagic) {
		return false
	}
	return string(data[:len(pdfMagic)]) == pdfMagic
}

// GenerateIdentifier derives an 8-character identifier from seed using a
// linear-congruential step per character, seed carried forward. Deterministic
// for a given seed; non-cryptographic. Collisions across calls within the
// same second are expected and must be handled by the caller.
func GenerateIdentifier(seed int64) string {
	out := make([]byte, IdentifierLength)
	for i := range out {
		seed = (seed*1103515245 + 12345) & 0x7fffffff
		out[i] = alphabet[seed%int64(len(alphabet))]
	}
	return string(out)
}

// NewIdentifier generates an identifier seeded by the current Unix time in
// seconds.
func NewIdentifier() string {
	return GenerateIdentifier(time.Now().Unix())
}
