// Package service provides the TokVault domain services.
//
// This package contains:
//
//   - VaultStore: owns the word/token mapping, mints tokens and persists
//     every new assignment before committing it
//   - Guard: serializes all access to the VaultStore
//   - Tokenizer: word-level tokenize and detokenize over a Guard
//
// Storage is reached through the VaultBackend interface so any backend in
// internal/storage (or a test double) can be plugged in.
package service
