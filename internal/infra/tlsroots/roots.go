package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when PEM data holds no certificate.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

// AppendPEM adds every CERTIFICATE block of pemData to pool and returns how
// many were added.
func AppendPEM(pool *x509.CertPool, pemData []byte) (int, error) {
	var added int
	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return added, fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		pool.AddCert(cert)
		added++
	}

	if added == 0 {
		return 0, ErrNoCertsFound
	}
	return added, nil
}

// LoadCAFile returns a pool holding the CAs in path. With includeSystem the
// pool starts from the system roots, falling back to an empty pool where
// those are unavailable.
func LoadCAFile(path string, includeSystem bool) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	if includeSystem {
		if sys, err := x509.SystemCertPool(); err == nil {
			pool = sys
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: read CA file %s: %w", path, err)
	}
	if _, err := AppendPEM(pool, data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pool, nil
}

// ClientConfig returns a client TLS config. An empty caFile trusts the
// system roots only; otherwise the CAs in caFile are trusted in addition.
func ClientConfig(caFile, serverName string) (*tls.Config, error) {
	cfg := &tls.Config{
		ServerName: serverName,
		MinVersion: tls.VersionTLS12,
	}
	if caFile == "" {
		return cfg, nil
	}

	pool, err := LoadCAFile(caFile, true)
	if err != nil {
		return nil, err
	}
	cfg.RootCAs = pool
	return cfg, nil
}

// ServerConfig returns a server TLS config serving the certificate held by
// w. A non-empty clientCAFile requires clients to present a certificate
// signed by one of its CAs.
func ServerConfig(w *CertWatcher, clientCAFile string) (*tls.Config, error) {
	cfg := &tls.Config{
		GetCertificate: w.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
	if clientCAFile == "" {
		return cfg, nil
	}

	pool, err := LoadCAFile(clientCAFile, false)
	if err != nil {
		return nil, err
	}
	cfg.ClientCAs = pool
	cfg.ClientAuth = tls.RequireAndVerifyClientCert
	return cfg, nil
}
