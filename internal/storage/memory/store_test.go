package memory

import (
	"context"
	"testing"

	"github.com/yndnr/tokvault-go/internal/core/domain"
	"github.com/yndnr/tokvault-go/internal/storage"
)

var _ storage.BlobStore = (*Store)(nil)

func TestStore_GetSet(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Get(ctx, []byte("vault")); err != storage.ErrKeyNotFound {
		t.Fatalf("Get() error = %v, want ErrKeyNotFound", err)
	}

	value := []byte("blob")
	if err := s.Set(ctx, []byte("vault"), value); err != nil {
		t.Fatal(err)
	}
	value[0] = 'X'

	got, err := s.Get(ctx, []byte("vault"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "blob" {
		t.Errorf("Get() = %q, want blob (store must copy values)", got)
	}
}

func TestStore_Closed(t *testing.T) {
	s := New()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := s.Set(ctx, []byte("k"), nil); err != storage.ErrClosed {
		t.Errorf("Set() error = %v, want ErrClosed", err)
	}
	if _, err := s.Get(ctx, []byte("k")); err != storage.ErrClosed {
		t.Errorf("Get() error = %v, want ErrClosed", err)
	}
}

func TestStore_AsBlobBackend(t *testing.T) {
	ctx := context.Background()
	b := storage.NewBlobBackend("memory", New(), nil)
	defer b.Close()

	e := domain.Entry{Word: "hello", Token: "T"}
	if err := b.Upsert(ctx, domain.NewVault().With(e), e); err != nil {
		t.Fatal(err)
	}

	v, err := b.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tok, ok := v.Token("hello"); !ok || tok != "T" {
		t.Errorf("Token(hello) = %q, %v", tok, ok)
	}
}
