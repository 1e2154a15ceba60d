// Package command provides CLI command definitions for tokvault-cli.
//
//   - root.go: App, global flags, shared helpers
//   - vault.go: tokenize and detokenize against a server
//   - system.go: status and health
//   - backup.go: backup download
//   - local.go: in-process vault on a local Badger directory
//   - snapshot.go: local snapshot create, list and restore
//   - config.go: server configuration show and validate
//
// Commands write to the app's Writer so tests can capture output.
package command
