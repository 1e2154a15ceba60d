// Package codec encodes the vault into the single blob stored by the
// blob backends.
//
// Frame layout:
//
//	+-----------+---------+-------+----------+------------------+
//	| Magic (4) | Ver (1) | Flags | CRC32 (4)| Body (variable)  |
//	+-----------+---------+-------+----------+------------------+
//
// Body is the msgpack document {version, word_to_token, token_to_word},
// sealed with an AEAD cipher when FlagSealed is set. CRC32 covers Body.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/yndnr/tokvault-go/internal/core/domain"
	"github.com/yndnr/tokvault-go/pkg/crypto/adaptive"
)

const (
	// FormatVersion is the current frame and document version.
	FormatVersion = 1

	// FlagSealed marks a body encrypted with the configured cipher.
	FlagSealed byte = 1 << 0

	headerSize = 4 + 1 + 1 + 4
)

var magic = []byte("TVLT")

// additionalData binds sealed bodies to their purpose.
var additionalData = []byte("tokvault:vault:v1")

// document is the msgpack form of the vault.
// Unknown fields are ignored on decode.
type document struct {
	Version     int               `msgpack:"version"`
	WordToToken map[string]string `msgpack:"word_to_token"`
	TokenToWord map[string]string `msgpack:"token_to_word"`
}

// Codec converts between vaults and stored blobs.
// A Codec is safe for concurrent use.
type Codec struct {
	cipher adaptive.Cipher
}

// Option configures a Codec.
type Option func(*Codec)

// WithCipher seals every encoded blob with c.
// Blobs written without a cipher cannot be read by a sealing codec and
// vice versa.
func WithCipher(c adaptive.Cipher) Option {
	return func(codec *Codec) {
		codec.cipher = c
	}
}

// New creates a codec.
func New(opts ...Option) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sealed reports whether the codec encrypts blobs.
func (c *Codec) Sealed() bool {
	return c.cipher != nil
}

// Encode serializes v into a framed blob.
func (c *Codec) Encode(v *domain.Vault) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("codec: vault is nil")
	}

	body, err := msgpack.Marshal(&document{
		Version:     FormatVersion,
		WordToToken: v.WordToToken,
		TokenToWord: v.TokenToWord,
	})
	if err != nil {
		return nil, fmt.Errorf("codec: marshal vault: %w", err)
	}

	var flags byte
	if c.cipher != nil {
		body, err = c.cipher.Encrypt(body, additionalData)
		if err != nil {
			return nil, fmt.Errorf("codec: seal vault: %w", err)
		}
		flags |= FlagSealed
	}

	out := make([]byte, headerSize, headerSize+len(body))
	copy(out, magic)
	out[4] = FormatVersion
	out[5] = flags
	binary.BigEndian.PutUint32(out[6:10], crc32.ChecksumIEEE(body))
	return append(out, body...), nil
}

// Decode parses a framed blob.
//
// Every failure wraps domain.ErrDeserialization: a bad frame, a checksum
// mismatch, a sealed blob without a cipher (or the wrong key), malformed
// msgpack, or maps that are not inverse of each other.
func (c *Codec) Decode(data []byte) (*domain.Vault, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], magic) {
		return nil, domain.ErrDeserialization.WithDetails("not a vault blob")
	}
	if data[4] > FormatVersion {
		return nil, domain.ErrDeserialization.WithDetails(
			fmt.Sprintf("unsupported format version %d", data[4]))
	}

	flags := data[5]
	body := data[headerSize:]
	if crc32.ChecksumIEEE(body) != binary.BigEndian.Uint32(data[6:10]) {
		return nil, domain.ErrDeserialization.WithDetails("checksum mismatch")
	}

	if flags&FlagSealed != 0 {
		if c.cipher == nil {
			return nil, domain.ErrDeserialization.WithDetails("blob is sealed and no encryption key is configured")
		}
		plain, err := c.cipher.Decrypt(body, additionalData)
		if err != nil {
			return nil, domain.ErrDeserialization.WithDetails("unseal").WithCause(err)
		}
		body = plain
	} else if c.cipher != nil {
		return nil, domain.ErrDeserialization.WithDetails("blob is not sealed but an encryption key is configured")
	}

	var doc document
	if err := msgpack.Unmarshal(body, &doc); err != nil {
		return nil, domain.ErrDeserialization.WithCause(err)
	}

	v := (&domain.Vault{WordToToken: doc.WordToToken, TokenToWord: doc.TokenToWord}).Normalize()
	if err := v.Validate(); err != nil {
		return nil, domain.ErrDeserialization.WithCause(err)
	}
	return v, nil
}
