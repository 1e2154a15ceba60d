// Package connection provides the HTTP client tokvault-cli uses to talk to
// tokvault-server.
package connection
