// Package token provides vault token minting and validation.
//
// Token Format:
//
//   - Source: 16 bytes from crypto/rand
//   - Digest: SHA-256 of the random bytes
//   - Encoding: Base64 RawURL (URL-safe, no padding)
//   - Length: first 16 characters of the encoded digest
//
// A minted token carries no information about the word it replaces.
// Uniqueness is not guaranteed here; the vault checks every candidate
// against the tokens it has already assigned.
package token
