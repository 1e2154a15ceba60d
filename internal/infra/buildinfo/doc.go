// Package buildinfo exposes build-time information for the tokvault
// binaries:
//
//   - Version: semantic version (e.g., "v1.0.0")
//   - Commit: git commit hash
//   - BuildTime: build timestamp
//   - GoVersion: Go toolchain, from the runtime when not injected
//
// Usage:
//
//	go build -ldflags "-X github.com/yndnr/tokvault-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/tokvault-go/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo
