package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/yndnr/tokvault-go/internal/core/domain"
	"github.com/yndnr/tokvault-go/internal/storage/codec"
	"github.com/yndnr/tokvault-go/pkg/crypto/adaptive"
)

// mapStore is a BlobStore over a map with injectable failures.
type mapStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	syncErr error
	syncs   int
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]byte)}
}

func (s *mapStore) Get(_ context.Context, key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

func (s *mapStore) Set(_ context.Context, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (s *mapStore) Sync(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncs++
	return s.syncErr
}

func (s *mapStore) Close() error { return nil }

func TestBlobBackend_LoadMissing(t *testing.T) {
	b := NewBlobBackend("test", newMapStore(), nil)

	v, err := b.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if v.Len() != 0 {
		t.Errorf("Len() = %d, want 0", v.Len())
	}
}

func TestBlobBackend_UpsertThenLoad(t *testing.T) {
	store := newMapStore()
	b := NewBlobBackend("test", store, nil)
	ctx := context.Background()

	e := domain.Entry{Word: "43.", Token: "abcdefghijklmnop"}
	if err := b.Upsert(ctx, domain.NewVault().With(e), e); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if store.syncs != 1 {
		t.Errorf("syncs = %d, want 1", store.syncs)
	}
	if _, ok := store.data[DefaultVaultKey]; !ok {
		t.Errorf("vault not stored under %q", DefaultVaultKey)
	}

	v, err := b.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if w, ok := v.Word(e.Token); !ok || w != e.Word {
		t.Errorf("Word(%q) = %q, %v", e.Token, w, ok)
	}
}

func TestBlobBackend_Replace(t *testing.T) {
	store := newMapStore()
	b := NewBlobBackend("test", store, nil)
	ctx := context.Background()

	old := domain.Entry{Word: "old", Token: "oldoldoldoldoldo"}
	if err := b.Upsert(ctx, domain.NewVault().With(old), old); err != nil {
		t.Fatal(err)
	}

	next := domain.NewVault().With(domain.Entry{Word: "new", Token: "newnewnewnewnewn"})
	if err := b.Replace(ctx, next); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if store.syncs != 2 {
		t.Errorf("syncs = %d, want 2", store.syncs)
	}

	v, err := b.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", v.Len())
	}
	if _, ok := v.Token("old"); ok {
		t.Error("replaced entry still present")
	}
}

func TestBlobBackend_CustomKey(t *testing.T) {
	store := newMapStore()
	b := NewBlobBackend("test", store, nil, WithVaultKey("tokvault:vault"), WithLogger(slog.Default()))

	e := domain.Entry{Word: "a", Token: "T"}
	if err := b.Upsert(context.Background(), domain.NewVault().With(e), e); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.data["tokvault:vault"]; !ok {
		t.Error("vault not stored under custom key")
	}
}

func TestBlobBackend_LoadCorrupt(t *testing.T) {
	store := newMapStore()
	store.data[DefaultVaultKey] = []byte("garbage")

	v, err := NewBlobBackend("test", store, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v, want empty vault", err)
	}
	if v.Len() != 0 {
		t.Errorf("Len() = %d, want 0", v.Len())
	}
}

func TestBlobBackend_LoadWrongKey(t *testing.T) {
	mk := func(seed byte) *codec.Codec {
		key := bytes.Repeat([]byte{seed}, 32)
		c, err := adaptive.NewWithType(key, adaptive.CipherChaCha20)
		if err != nil {
			t.Fatal(err)
		}
		return codec.New(codec.WithCipher(c))
	}

	store := newMapStore()
	ctx := context.Background()
	e := domain.Entry{Word: "secret", Token: "T"}
	if err := NewBlobBackend("test", store, mk(1)).Upsert(ctx, domain.NewVault().With(e), e); err != nil {
		t.Fatal(err)
	}

	v, err := NewBlobBackend("test", store, mk(2)).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if v.Len() != 0 {
		t.Errorf("Len() = %d, want 0", v.Len())
	}

	v, err = NewBlobBackend("test", store, mk(1)).Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.Len() != 1 {
		t.Errorf("Len() = %d, want 1", v.Len())
	}
}

func TestBlobBackend_LoadStoreError(t *testing.T) {
	store := newMapStore()
	store.getErr = errors.New("connection refused")

	_, err := NewBlobBackend("test", store, nil).Load(context.Background())
	if !errors.Is(err, domain.ErrStorageOpen) {
		t.Errorf("Load() error = %v, want ErrStorageOpen", err)
	}
}

func TestBlobBackend_UpsertErrors(t *testing.T) {
	e := domain.Entry{Word: "a", Token: "T"}
	ioErr := errors.New("disk full")

	tests := []struct {
		name  string
		setup func(*mapStore)
	}{
		{"set", func(s *mapStore) { s.setErr = ioErr }},
		{"sync", func(s *mapStore) { s.syncErr = ioErr }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMapStore()
			tt.setup(store)

			err := NewBlobBackend("test", store, nil).Upsert(context.Background(), domain.NewVault().With(e), e)
			if !errors.Is(err, ioErr) {
				t.Errorf("Upsert() error = %v, want %v", err, ioErr)
			}
		})
	}
}

func TestBlobBackend_Backup(t *testing.T) {
	ctx := context.Background()

	if err := NewBlobBackend("test", newMapStore(), nil).Backup(ctx, &bytes.Buffer{}); !errors.Is(err, domain.ErrNotImplemented) {
		t.Errorf("Backup() error = %v, want ErrNotImplemented", err)
	}

	engine := newTestBadger(t, t.TempDir())
	b := NewBlobBackend("badger", engine, nil)
	defer b.Close()

	e := domain.Entry{Word: "a", Token: "T"}
	if err := b.Upsert(ctx, domain.NewVault().With(e), e); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := b.Backup(ctx, &buf); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("backup is empty")
	}
}

func TestBlobBackend_BadgerDurability(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b := NewBlobBackend("badger", newTestBadger(t, dir), nil)
	v := domain.NewVault()
	for _, e := range []domain.Entry{{Word: "My", Token: "t1"}, {Word: "age", Token: "t2"}} {
		v = v.With(e)
		if err := b.Upsert(ctx, v, e); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := NewBlobBackend("badger", newTestBadger(t, dir), nil)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 2 {
		t.Errorf("Len() = %d, want 2", got.Len())
	}
	if tok, _ := got.Token("age"); tok != "t2" {
		t.Errorf("Token(age) = %q, want t2", tok)
	}
}
