package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/yndnr/tokvault-go/internal/core/domain"
)

// DetokenizePolicy decides what Detokenize does with unknown tokens.
type DetokenizePolicy string

const (
	// PolicyDrop omits unknown tokens from the output.
	PolicyDrop DetokenizePolicy = "drop"

	// PolicyStrict fails the call with domain.ErrTokenUnknown.
	PolicyStrict DetokenizePolicy = "strict"
)

// ParseDetokenizePolicy accepts "drop", "strict" or "" (drop).
func ParseDetokenizePolicy(s string) (DetokenizePolicy, error) {
	switch DetokenizePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyDrop:
		return PolicyDrop, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("detokenize policy %q", s))
	}
}

// Tokenizer replaces words with tokens and back.
//
// Text is split on runs of Unicode whitespace and rejoined with single
// spaces, so only the word sequence survives a round trip. Each call holds
// the guard for its whole duration.
type Tokenizer struct {
	guard  *Guard
	policy DetokenizePolicy
}

// NewTokenizer creates a Tokenizer over guard.
func NewTokenizer(guard *Guard, policy DetokenizePolicy) *Tokenizer {
	if policy == "" {
		policy = PolicyDrop
	}
	return &Tokenizer{guard: guard, policy: policy}
}

// Policy returns the detokenize policy in effect.
func (t *Tokenizer) Policy() DetokenizePolicy {
	return t.policy
}

// Tokenize replaces every word of text with its token, minting tokens for
// words seen for the first time.
//
// Persistence is not cancelled when ctx is: an assignment that reached the
// backend must be allowed to finish so memory and storage agree. On error,
// words handled before the failing one keep their (durable) tokens.
func (t *Tokenizer) Tokenize(ctx context.Context, text string) (string, error) {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	persistCtx := context.WithoutCancel(ctx)

	err := t.guard.Do(func(vs *VaultStore) error {
		for _, w := range words {
			tok, err := vs.TokenFor(persistCtx, w)
			if err != nil {
				return err
			}
			out = append(out, tok)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return strings.Join(out, " "), nil
}

// Detokenize replaces every known token in text with its word. Unknown
// tokens are dropped, or fail the call under PolicyStrict.
func (t *Tokenizer) Detokenize(ctx context.Context, text string) (string, error) {
	toks := strings.Fields(text)
	out := make([]string, 0, len(toks))

	err := t.guard.Do(func(vs *VaultStore) error {
		for i, tok := range toks {
			w, ok := vs.LookupWord(tok)
			if !ok {
				vs.observer.UnknownToken()
				if t.policy == PolicyStrict {
					return domain.ErrTokenUnknown.WithDetails(fmt.Sprintf("position %d", i))
				}
				continue
			}
			out = append(out, w)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return strings.Join(out, " "), nil
}

// Restore replaces the vault with v under the guard. Like Tokenize, the
// write is not cancelled when ctx is.
func (t *Tokenizer) Restore(ctx context.Context, v *domain.Vault) error {
	persistCtx := context.WithoutCancel(ctx)
	return t.guard.Do(func(vs *VaultStore) error {
		return vs.Replace(persistCtx, v)
	})
}

// Stats returns vault statistics under the guard.
func (t *Tokenizer) Stats() VaultStats {
	var stats VaultStats
	_ = t.guard.Do(func(vs *VaultStore) error {
		stats = vs.Stats()
		return nil
	})
	return stats
}

// Snapshot returns a copy of the vault and the backend name, taken under
// the guard.
func (t *Tokenizer) Snapshot() (*domain.Vault, string) {
	var (
		v       *domain.Vault
		backend string
	)
	_ = t.guard.Do(func(vs *VaultStore) error {
		v = vs.vault.Clone()
		backend = vs.backend.Name()
		return nil
	})
	return v, backend
}
