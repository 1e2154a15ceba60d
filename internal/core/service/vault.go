package service

import (
	"context"
	"fmt"

	"github.com/yndnr/tokvault-go/internal/core/domain"
	"github.com/yndnr/tokvault-go/pkg/token"
)

// MaxMintAttempts bounds how many fresh tokens TokenFor draws for one word
// before giving up with ErrTokenSpaceExhausted.
const MaxMintAttempts = 2

// VaultBackend defines the persistence interface for the vault.
//
// Upsert receives the vault as it will be once e is committed, plus e
// itself. Returning nil means e is durable.
type VaultBackend interface {
	Name() string
	Load(ctx context.Context) (*domain.Vault, error)
	Upsert(ctx context.Context, next *domain.Vault, e domain.Entry) error
}

// VaultReplacer is implemented by backends that can swap the whole
// persisted vault in one durable step.
type VaultReplacer interface {
	Replace(ctx context.Context, v *domain.Vault) error
}

// VaultConfig holds configuration for VaultStore.
type VaultConfig struct {
	// Generator mints candidate tokens. Default: token.Mint
	Generator token.Generator

	// Observer receives vault events. Default: no-op
	Observer VaultObserver
}

// DefaultVaultConfig returns default configuration.
func DefaultVaultConfig() *VaultConfig {
	return &VaultConfig{
		Generator: token.Mint,
		Observer:  nopObserver{},
	}
}

// VaultStats describes the vault for status reporting.
type VaultStats struct {
	Entries int    `json:"entries"`
	Backend string `json:"backend"`
}

// VaultStore owns the in-memory vault and keeps it in step with the backend.
//
// VaultStore is not safe for concurrent use; wrap it in a Guard.
type VaultStore struct {
	vault    *domain.Vault
	backend  VaultBackend
	generate token.Generator
	observer VaultObserver
}

// LoadVaultStore reads the persisted vault from backend.
//
// Missing or unreadable state loads as an empty vault inside the backend;
// the only error here is an unreachable store (domain.ErrStorageOpen).
func LoadVaultStore(ctx context.Context, backend VaultBackend, config *VaultConfig) (*VaultStore, error) {
	v, err := backend.Load(ctx)
	if err != nil {
		if domain.IsDomainError(err, "") {
			return nil, err
		}
		return nil, domain.ErrStorageOpen.WithCause(err)
	}
	if v == nil {
		v = domain.NewVault()
	}

	return newVaultStore(v.Normalize(), backend, config), nil
}

func newVaultStore(v *domain.Vault, backend VaultBackend, config *VaultConfig) *VaultStore {
	if config == nil {
		config = DefaultVaultConfig()
	}
	s := &VaultStore{
		vault:    v,
		backend:  backend,
		generate: config.Generator,
		observer: config.Observer,
	}
	if s.generate == nil {
		s.generate = token.Mint
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	s.observer.VaultSize(v.Len())
	return s
}

// LookupToken returns the token assigned to word.
func (s *VaultStore) LookupToken(word string) (string, bool) {
	return s.vault.Token(word)
}

// LookupWord returns the word a token stands for.
func (s *VaultStore) LookupWord(tok string) (string, bool) {
	return s.vault.Word(tok)
}

// Assign records word -> tok.
//
// The pair is persisted first; memory changes only if the backend
// succeeds. A failed write returns ErrStorageWrite and leaves the vault
// exactly as it was. Re-assigning an existing pair is a no-op; a pair that
// conflicts with an existing assignment is rejected.
func (s *VaultStore) Assign(ctx context.Context, word, tok string) error {
	existingTok, wordKnown := s.vault.Token(word)
	existingWord, tokKnown := s.vault.Word(tok)
	if wordKnown && tokKnown && existingTok == tok && existingWord == word {
		return nil
	}
	if wordKnown || tokKnown {
		return domain.ErrInvalidArgument.WithDetails("assignment conflicts with an existing mapping")
	}

	e := domain.Entry{Word: word, Token: tok}

	// Neither key is present, so undoing the insert is two deletes. The
	// undo is deferred so a panicking backend cannot leave it half-applied.
	s.vault.WordToToken[word] = tok
	s.vault.TokenToWord[tok] = word
	committed := false
	defer func() {
		if !committed {
			delete(s.vault.WordToToken, word)
			delete(s.vault.TokenToWord, tok)
		}
	}()

	if err := s.backend.Upsert(ctx, s.vault, e); err != nil {
		s.observer.PersistFailed()
		return domain.ErrStorageWrite.WithDetails(s.backend.Name()).WithCause(err)
	}
	committed = true

	s.observer.VaultSize(s.vault.Len())
	return nil
}

// TokenFor returns the token for word, minting and persisting one if the
// word has none yet.
func (s *VaultStore) TokenFor(ctx context.Context, word string) (string, error) {
	if tok, ok := s.vault.Token(word); ok {
		return tok, nil
	}

	for attempt := 0; attempt < MaxMintAttempts; attempt++ {
		tok, err := s.generate()
		if err != nil {
			return "", domain.ErrInternalServer.WithDetails("mint token").WithCause(err)
		}
		if s.vault.HasToken(tok) {
			s.observer.MintCollision()
			continue
		}

		if err := s.Assign(ctx, word, tok); err != nil {
			return "", err
		}
		s.observer.TokenMinted()
		return tok, nil
	}

	s.observer.TokenSpaceExhausted()
	return "", domain.ErrTokenSpaceExhausted.WithDetails(
		fmt.Sprintf("%d candidates collided", MaxMintAttempts))
}

// Replace swaps the whole vault for v, persisting it first. The backend
// must implement VaultReplacer. On any error the current vault is kept.
func (s *VaultStore) Replace(ctx context.Context, v *domain.Vault) error {
	next := v.Clone().Normalize()
	if err := next.Validate(); err != nil {
		return err
	}

	r, ok := s.backend.(VaultReplacer)
	if !ok {
		return domain.ErrNotImplemented.WithDetails("replace is not supported by the " + s.backend.Name() + " backend")
	}
	if err := r.Replace(ctx, next); err != nil {
		s.observer.PersistFailed()
		return domain.ErrStorageWrite.WithDetails(s.backend.Name()).WithCause(err)
	}

	s.vault = next
	s.observer.VaultSize(next.Len())
	return nil
}

// Stats returns the entry count and backend name.
func (s *VaultStore) Stats() VaultStats {
	return VaultStats{
		Entries: s.vault.Len(),
		Backend: s.backend.Name(),
	}
}
