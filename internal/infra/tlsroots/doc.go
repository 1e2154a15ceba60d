// Package tlsroots builds TLS configurations for tokvault listeners and
// outbound store connections.
//
//   - roots.go: CA pools from PEM files, client and server tls.Config
//   - watcher.go: serving certificate hot-reload via fsnotify
package tlsroots
