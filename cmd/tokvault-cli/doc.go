// Package main provides the entry point for tokvault-cli.
//
// Usage:
//
//	tokvault-cli tokenize "My age is 43."
//	echo "My age is 43." | tokvault-cli -o json tokenize
//	tokvault-cli status
//	tokvault-cli backup --out vault.bak
//	tokvault-cli local --data-dir ./vault demo
//	tokvault-cli config validate --config server.yaml
package main
