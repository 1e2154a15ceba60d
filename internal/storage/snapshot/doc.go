// Package snapshot writes point-in-time copies of the vault to a directory
// and restores the newest valid one.
//
// Snapshots are independent of the live backend: the payload is the vault
// blob as produced by the storage codec, so a snapshot taken from a SQL
// backend restores into Badger and vice versa. Sealed codecs produce
// sealed payloads.
//
// File layout:
//
//	snapshot-<ulid>.tvsnap
//	[magic:8 "TOKVSNAP"]
//	[HeaderLen:4][HeaderJSON:HeaderLen]
//	[DataLen:4][Data:DataLen]   (codec blob)
//	[checksum:32 SHA-256 of all bytes above]
//
// The ULID orders snapshots by creation time and drives age-based
// retention.
package snapshot
