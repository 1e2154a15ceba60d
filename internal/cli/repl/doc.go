// Package repl provides the interactive shell of tokvault-cli.
//
//   - repl.go: Read-eval-print loop and built-in commands
//   - completer.go: Command name completion for suggestions
//   - history.go: In-memory command history
//
// History is never written to disk: shell input is plaintext.
package repl
