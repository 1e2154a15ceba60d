package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

const (
	// SourceLength is the number of random bytes hashed per token.
	SourceLength = 16

	// Length is the fixed token length in characters.
	Length = 16
)

// Generator produces candidate tokens.
type Generator func() (string, error)

// Mint generates a new candidate token.
//
// The random bytes are hashed before encoding so the output alphabet is
// uniformly distributed regardless of the source.
func Mint() (string, error) {
	src, err := GenerateBytes(SourceLength)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(src)
	return base64.RawURLEncoding.EncodeToString(sum[:])[:Length], nil
}

// GenerateWithLength generates a random Base64 RawURL string from length bytes.
func GenerateWithLength(length int) (string, error) {
	bytes, err := GenerateBytes(length)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// GenerateBytes generates random bytes.
func GenerateBytes(length int) ([]byte, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return nil, err
	}
	return bytes, nil
}
