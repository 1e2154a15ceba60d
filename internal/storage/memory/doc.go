// Package memory provides a process-local BlobStore.
//
// Nothing survives a restart. It backs the "memory" storage backend used
// for demos and tests.
package memory
