// Package adaptive provides the AEAD ciphers used to seal the vault at rest.
//
// Supported algorithms:
//
//   - AES-GCM (16, 24 or 32 byte keys), preferred where the CPU has AES
//     instructions
//   - ChaCha20-Poly1305 (32 byte keys)
//
// Sealed output is nonce || ciphertext || tag. The nonce is random per call.
//
// Usage:
//
//	c, err := adaptive.FromHexKey(cfg.EncryptionKey, cfg.Cipher)
//	sealed, err := c.Encrypt(plaintext, aad)
//	plaintext, err := c.Decrypt(sealed, aad)
package adaptive
