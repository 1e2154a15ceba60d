// Package config provides server configuration for TokVault.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - load.go: File + environment loading via confloader
//   - verify.go: Validation (addresses, backend settings, keys)
//   - sanitize.go: Copy with secrets masked, for logs and `config show`
package config
