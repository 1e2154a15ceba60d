// Package config holds tokvault-cli's own settings (~/.tokvault/cli.yaml):
// default server, API key and output format.
package config
