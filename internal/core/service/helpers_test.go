package service

import (
	"context"
	"errors"
	"sync"

	"github.com/yndnr/tokvault-go/internal/core/domain"
)

var errDiskFull = errors.New("disk full")

// fakeBackend records upserts and keeps a durable copy of the vault.
type fakeBackend struct {
	mu        sync.Mutex
	persisted *domain.Vault
	upserts   int
	failWith  error
	panicWith any
	loadErr   error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{persisted: domain.NewVault()}
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Load(context.Context) (*domain.Vault, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return b.persisted.Clone(), nil
}

func (b *fakeBackend) Upsert(_ context.Context, next *domain.Vault, _ domain.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.panicWith != nil {
		panic(b.panicWith)
	}
	if b.failWith != nil {
		return b.failWith
	}
	b.upserts++
	b.persisted = next.Clone()
	return nil
}

func (b *fakeBackend) Replace(_ context.Context, v *domain.Vault) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	b.persisted = v.Clone()
	return nil
}

// upsertOnlyBackend hides Replace.
type upsertOnlyBackend struct{ b *fakeBackend }

func (u upsertOnlyBackend) Name() string { return u.b.Name() }

func (u upsertOnlyBackend) Load(ctx context.Context) (*domain.Vault, error) { return u.b.Load(ctx) }

func (u upsertOnlyBackend) Upsert(ctx context.Context, next *domain.Vault, e domain.Entry) error {
	return u.b.Upsert(ctx, next, e)
}

func (b *fakeBackend) setFailure(err error) {
	b.mu.Lock()
	b.failWith = err
	b.mu.Unlock()
}

func (b *fakeBackend) upsertCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.upserts
}

// countingObserver counts vault events.
type countingObserver struct {
	mu                                                   sync.Mutex
	minted, collisions, persistFails, exhausted, unknown int
	size                                                 int
}

func (o *countingObserver) TokenMinted()         { o.mu.Lock(); o.minted++; o.mu.Unlock() }
func (o *countingObserver) MintCollision()       { o.mu.Lock(); o.collisions++; o.mu.Unlock() }
func (o *countingObserver) PersistFailed()       { o.mu.Lock(); o.persistFails++; o.mu.Unlock() }
func (o *countingObserver) TokenSpaceExhausted() { o.mu.Lock(); o.exhausted++; o.mu.Unlock() }
func (o *countingObserver) UnknownToken()        { o.mu.Lock(); o.unknown++; o.mu.Unlock() }
func (o *countingObserver) VaultSize(n int)      { o.mu.Lock(); o.size = n; o.mu.Unlock() }

// sequenceGenerator returns the given tokens in order, then repeats the last.
func sequenceGenerator(tokens ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		tok := tokens[i]
		if i < len(tokens)-1 {
			i++
		}
		return tok, nil
	}
}

func loadStore(b *fakeBackend, cfg *VaultConfig) *VaultStore {
	s, err := LoadVaultStore(context.Background(), b, cfg)
	if err != nil {
		panic(err)
	}
	return s
}
