package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"

	// CipherAuto picks AES-GCM or ChaCha20-Poly1305 from the platform.
	CipherAuto CipherType = "auto"
)

var (
	ErrInvalidKeySize     = errors.New("adaptive: invalid key size")
	ErrUnknownCipher      = errors.New("adaptive: unknown cipher type")
	ErrCiphertextTooShort = errors.New("adaptive: ciphertext too short")
)

// Cipher provides authenticated encryption.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Encrypt seals plaintext, binding additionalData.
	Encrypt(plaintext, additionalData []byte) ([]byte, error)

	// Decrypt opens a value produced by Encrypt with the same additionalData.
	Decrypt(ciphertext, additionalData []byte) ([]byte, error)

	// NonceSize returns the nonce size in bytes.
	NonceSize() int

	// Overhead returns the nonce plus tag size added to every plaintext.
	Overhead() int
}

// New creates a cipher for key, choosing the algorithm from the platform.
func New(key []byte) (Cipher, error) {
	return NewWithType(key, CipherAuto)
}

// NewWithType creates a cipher of the specified type.
func NewWithType(key []byte, cipherType CipherType) (Cipher, error) {
	switch cipherType {
	case CipherAuto, "":
		if hasAESInstructions() || len(key) != chacha20poly1305.KeySize {
			return newAESGCM(key)
		}
		return newChaCha20(key)
	case CipherAESGCM:
		return newAESGCM(key)
	case CipherChaCha20:
		return newChaCha20(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCipher, cipherType)
	}
}

// ParseCipherType normalizes a configured cipher name.
func ParseCipherType(s string) (CipherType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return CipherAuto, nil
	case "aes-gcm", "aes", "aesgcm":
		return CipherAESGCM, nil
	case "chacha20-poly1305", "chacha20", "chacha":
		return CipherChaCha20, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCipher, s)
	}
}

// FromHexKey builds a cipher from a hex-encoded key and a configured name.
func FromHexKey(hexKey, cipherName string) (Cipher, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("adaptive: decode key: %w", err)
	}
	cipherType, err := ParseCipherType(cipherName)
	if err != nil {
		return nil, err
	}
	return NewWithType(key, cipherType)
}

// hasAESInstructions reports whether crypto/aes runs hardware accelerated.
// Go uses AES-NI on amd64 and the ARMv8 crypto extensions on arm64.
func hasAESInstructions() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64", "s390x", "ppc64le":
		return true
	default:
		return false
	}
}

type aeadCipher struct {
	kind CipherType
	aead cipher.AEAD
}

func newAESGCM(key []byte) (*aeadCipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: aes-gcm needs 16, 24 or 32 bytes, got %d", ErrInvalidKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &aeadCipher{kind: CipherAESGCM, aead: aead}, nil
}

func newChaCha20(key []byte) (*aeadCipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: chacha20-poly1305 needs %d bytes, got %d",
			ErrInvalidKeySize, chacha20poly1305.KeySize, len(key))
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return &aeadCipher{kind: CipherChaCha20, aead: aead}, nil
}

func (c *aeadCipher) Type() CipherType { return c.kind }

func (c *aeadCipher) NonceSize() int { return c.aead.NonceSize() }

func (c *aeadCipher) Overhead() int { return c.aead.NonceSize() + c.aead.Overhead() }

func (c *aeadCipher) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (c *aeadCipher) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(ciphertext) < n+c.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	return c.aead.Open(nil, ciphertext[:n], ciphertext[n:], additionalData)
}
