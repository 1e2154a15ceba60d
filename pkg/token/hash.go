package token

import (
	"crypto/sha256"
	"crypto/subtle"
)

// Valid reports whether s has the shape of a minted token.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isRawURLChar(s[i]) {
			return false
		}
	}
	return true
}

// Equal compares two secrets in constant time.
//
// Both values are hashed first so the comparison time does not depend
// on their lengths either.
func Equal(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}

func isRawURLChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}
