package codec

import (
	"errors"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/yndnr/tokvault-go/internal/core/domain"
	"github.com/yndnr/tokvault-go/pkg/crypto/adaptive"
)

func sampleVault() *domain.Vault {
	return domain.NewVault().
		With(domain.Entry{Word: "My", Token: "AAAAAAAAAAAAAAAA"}).
		With(domain.Entry{Word: "age", Token: "BBBBBBBBBBBBBBBB"}).
		With(domain.Entry{Word: "43.", Token: "CCCCCCCCCCCCCCCC"})
}

func mustCipher(t *testing.T, seed byte) adaptive.Cipher {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = seed + byte(i)
	}
	c, err := adaptive.NewWithType(key, adaptive.CipherAESGCM)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		codec *Codec
	}{
		{"plain", New()},
		{"sealed", New(WithCipher(mustCipher(t, 1)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := sampleVault()

			data, err := tt.codec.Encode(v)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			got, err := tt.codec.Decode(data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.Len() != v.Len() {
				t.Fatalf("Len() = %d, want %d", got.Len(), v.Len())
			}
			for _, e := range v.Entries() {
				if tok, _ := got.Token(e.Word); tok != e.Token {
					t.Errorf("Token(%q) = %q, want %q", e.Word, tok, e.Token)
				}
			}
		})
	}
}

func TestCodec_EmptyVault(t *testing.T) {
	c := New()
	data, err := c.Encode(domain.NewVault())
	if err != nil {
		t.Fatal(err)
	}

	got, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Len() != 0 || got.WordToToken == nil || got.TokenToWord == nil {
		t.Errorf("Decode() = %+v, want empty usable vault", got)
	}
}

func TestCodec_DecodeFailures(t *testing.T) {
	plain := New()
	sealed := New(WithCipher(mustCipher(t, 1)))
	otherKey := New(WithCipher(mustCipher(t, 9)))

	plainBlob, err := plain.Encode(sampleVault())
	if err != nil {
		t.Fatal(err)
	}
	sealedBlob, err := sealed.Encode(sampleVault())
	if err != nil {
		t.Fatal(err)
	}

	flipped := append([]byte(nil), plainBlob...)
	flipped[len(flipped)-1] ^= 0xff

	futureVersion := append([]byte(nil), plainBlob...)
	futureVersion[4] = FormatVersion + 1

	tests := []struct {
		name  string
		codec *Codec
		data  []byte
	}{
		{"empty", plain, nil},
		{"garbage", plain, []byte("definitely not a vault")},
		{"checksum", plain, flipped},
		{"future version", plain, futureVersion},
		{"sealed without key", plain, sealedBlob},
		{"plain with key", sealed, plainBlob},
		{"wrong key", otherKey, sealedBlob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.codec.Decode(tt.data)
			if !errors.Is(err, domain.ErrDeserialization) {
				t.Errorf("Decode() error = %v, want ErrDeserialization", err)
			}
		})
	}
}

func TestCodec_RejectsInconsistentMaps(t *testing.T) {
	doc := document{
		Version:     FormatVersion,
		WordToToken: map[string]string{"a": "T1", "b": "T1"},
		TokenToWord: map[string]string{"T1": "a"},
	}
	body, err := msgpack.Marshal(&doc)
	if err != nil {
		t.Fatal(err)
	}

	// Reuse the framing of a valid blob around the hand-built body.
	c := New()
	valid, err := c.Encode(domain.NewVault())
	if err != nil {
		t.Fatal(err)
	}
	data := append(valid[:headerSize:headerSize], body...)
	putChecksum(data)

	if _, err := c.Decode(data); !errors.Is(err, domain.ErrDeserialization) {
		t.Errorf("Decode() error = %v, want ErrDeserialization", err)
	}
}

func TestCodec_IgnoresUnknownFields(t *testing.T) {
	body, err := msgpack.Marshal(map[string]interface{}{
		"version":       FormatVersion,
		"word_to_token": map[string]string{"x": "T"},
		"token_to_word": map[string]string{"T": "x"},
		"created_by":    "a later release",
	})
	if err != nil {
		t.Fatal(err)
	}

	c := New()
	valid, err := c.Encode(domain.NewVault())
	if err != nil {
		t.Fatal(err)
	}
	data := append(valid[:headerSize:headerSize], body...)
	putChecksum(data)

	v, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if w, ok := v.Word("T"); !ok || w != "x" {
		t.Errorf("Word(T) = %q, %v", w, ok)
	}
}

func TestCodec_Sealed(t *testing.T) {
	if New().Sealed() {
		t.Error("New().Sealed() = true")
	}
	if !New(WithCipher(mustCipher(t, 1))).Sealed() {
		t.Error("New(WithCipher).Sealed() = false")
	}
}
