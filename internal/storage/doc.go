// Package storage provides persistence backends for the TokVault vault.
//
// Every backend implements Backend: it loads the whole vault at startup
// and durably records each new assignment before the vault commits it in
// memory.
//
// Backends:
//
//   - BlobBackend: the encoded vault as one record under a fixed key in a
//     BlobStore (Badger on local disk, an in-memory store, or Redis via
//     the redisstore package)
//   - sqlstore: one row per token in a relational table (PostgreSQL, MySQL)
//
// A missing or undecodable blob loads as an empty vault. Failure to reach
// the store itself is reported as domain.ErrStorageOpen.
package storage
