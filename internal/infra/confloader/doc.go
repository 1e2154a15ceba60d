// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Maps loaded last (flags, tests)
//  2. Environment variables (TOKVAULT_ prefix, "__" between levels)
//  3. The YAML configuration file
//  4. Whatever the target struct held before Unmarshal (defaults)
//
// Watcher reports edits to the configuration file so parts of it can be
// applied without a restart.
package confloader
