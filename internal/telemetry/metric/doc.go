// Package metric provides Prometheus metrics for TokVault.
//
// Registry owns a private prometheus.Registry with Go and process
// collectors plus the vault and HTTP metrics. VaultMetrics satisfies
// service.VaultObserver.
package metric
