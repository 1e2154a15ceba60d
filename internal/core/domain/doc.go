// Package domain defines the core domain models for TokVault.
//
// Domain models are pure values without IO dependencies. This package
// contains:
//
//   - Vault: the bidirectional word/token mapping and its invariants
//   - Entry: a single word/token pair
//   - Errors: coded domain errors shared by every layer
package domain
