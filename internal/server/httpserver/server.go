package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"
)

// Config configures the HTTP server.
type Config struct {
	Addr        string
	TLSCertFile string
	TLSKeyFile  string

	// TLSConfig, when set, takes precedence over the file pair. It is how
	// certificate hot-reload and client certificate checks are wired in.
	TLSConfig *tls.Config

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	cfg        Config
}

// New creates a new HTTP server.
func New(cfg Config, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       2 * time.Minute,
			TLSConfig:         cfg.TLSConfig,
		},
		cfg: cfg,
	}
}

// TLSEnabled reports whether the server serves HTTPS.
func (s *Server) TLSEnabled() bool {
	return s.cfg.TLSConfig != nil || (s.cfg.TLSCertFile != "" && s.cfg.TLSKeyFile != "")
}

// ListenAndServe listens on the configured address and serves HTTP or
// HTTPS. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln. It returns nil after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	var err error
	switch {
	case s.cfg.TLSConfig != nil:
		err = s.httpServer.ServeTLS(ln, "", "")
	case s.TLSEnabled():
		err = s.httpServer.ServeTLS(ln, s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
	default:
		err = s.httpServer.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
