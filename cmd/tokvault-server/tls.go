package main

import (
	"crypto/tls"
	"log/slog"

	"github.com/yndnr/tokvault-go/internal/infra/tlsroots"
)

// serverTLS builds a hot-reloading TLS config for a listener. It returns
// nil when no certificate is configured. The caller starts and stops the
// watcher.
func serverTLS(certFile, keyFile, clientCAFile string, log *slog.Logger) (*tls.Config, *tlsroots.CertWatcher, error) {
	if certFile == "" || keyFile == "" {
		return nil, nil, nil
	}

	w, err := tlsroots.NewCertWatcher(certFile, keyFile, tlsroots.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	tlsCfg, err := tlsroots.ServerConfig(w, clientCAFile)
	if err != nil {
		w.Stop()
		return nil, nil, err
	}

	log.Info("TLS certificate loaded",
		"cert", certFile,
		"not_after", w.NotAfter(),
		"client_auth", clientCAFile != "")
	return tlsCfg, w, nil
}
