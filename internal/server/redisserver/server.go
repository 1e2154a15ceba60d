package redisserver

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/tokvault-go/internal/core/service"
	"github.com/yndnr/tokvault-go/internal/telemetry/metric"
)

// Config configures the RESP listener.
type Config struct {
	Addr string

	// TLSConfig enables TLS when set.
	TLSConfig *tls.Config

	// APIKey, when set, must be presented with AUTH.
	APIKey string

	// ReadTimeout bounds reading one command once its first byte arrived.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing one reply.
	WriteTimeout time.Duration

	// IdleTimeout closes connections that send nothing for this long.
	IdleTimeout time.Duration

	// CommandsPerSecond limits each connection. Zero disables limiting.
	CommandsPerSecond float64

	// MaxConns caps concurrent connections. Zero means unlimited.
	MaxConns int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:              "127.0.0.1:6380",
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       5 * time.Minute,
		CommandsPerSecond: 500,
		MaxConns:          1024,
	}
}

// Server serves vault commands over RESP.
type Server struct {
	cfg       Config
	tokenizer *service.Tokenizer
	metrics   *metric.RESPMetrics
	logger    *slog.Logger

	mu      sync.Mutex
	ln      net.Listener
	conns   map[*conn]struct{}
	closing atomic.Bool
	wg      sync.WaitGroup
}

// New creates a RESP server. metrics may be nil.
func New(cfg Config, tokenizer *service.Tokenizer, metrics *metric.RESPMetrics, logger *slog.Logger) *Server {
	def := DefaultConfig()
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		tokenizer: tokenizer,
		metrics:   metrics,
		logger:    logger,
		conns:     make(map[*conn]struct{}),
	}
}

// TLSEnabled reports whether the listener uses TLS.
func (s *Server) TLSEnabled() bool {
	return s.cfg.TLSConfig != nil
}

// ListenAndServe listens on the configured address. It returns nil after
// Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns nil after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if s.cfg.TLSConfig != nil {
		ln = tls.NewListener(ln, s.cfg.TLSConfig)
	}

	s.mu.Lock()
	if s.closing.Load() {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("RESP server listening", "addr", ln.Addr().String(), "tls", s.TLSEnabled())

	for {
		nc, err := ln.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return err
		}

		c := s.track(nc)
		if c == nil {
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.serveConn(c)
		}()
	}
}

// track registers nc, or rejects it when the server is full or closing.
func (s *Server) track(nc net.Conn) *conn {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing.Load() {
		nc.Close()
		return nil
	}
	if s.cfg.MaxConns > 0 && len(s.conns) >= s.cfg.MaxConns {
		w := NewWriter(nc)
		_ = nc.SetWriteDeadline(time.Now().Add(time.Second))
		_ = w.Error("ERR max number of clients reached")
		_ = w.Flush()
		nc.Close()
		s.logger.Warn("RESP connection rejected", "remote", nc.RemoteAddr().String(), "reason", "max_conns")
		return nil
	}

	c := newConn(nc, s.cfg)
	s.conns[c] = struct{}{}
	if s.metrics != nil {
		s.metrics.ActiveConnections.Inc()
	}
	return c
}

func (s *Server) untrack(c *conn) {
	c.netConn.Close()

	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.ActiveConnections.Dec()
	}
}

// Shutdown stops accepting, lets in-flight commands reply and closes every
// connection. It returns ctx.Err() if connections outlive ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closing.Store(true)

	s.mu.Lock()
	var err error
	if s.ln != nil {
		err = s.ln.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	}
	// Unblock connections waiting for their next command.
	for c := range s.conns {
		_ = c.netConn.SetReadDeadline(time.Now())
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		s.mu.Lock()
		for c := range s.conns {
			c.netConn.Close()
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}

// conn is one client connection.
type conn struct {
	netConn net.Conn
	r       *bufio.Reader
	w       *Writer
	remote  string
	authed  bool
	limiter *rate.Limiter
	quit    bool
}

func newConn(nc net.Conn, cfg Config) *conn {
	c := &conn{
		netConn: nc,
		r:       bufio.NewReader(nc),
		w:       NewWriter(nc),
		remote:  nc.RemoteAddr().String(),
		authed:  cfg.APIKey == "",
	}
	if cfg.CommandsPerSecond > 0 {
		burst := int(cfg.CommandsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.CommandsPerSecond), burst)
	}
	return c
}

func (s *Server) serveConn(c *conn) {
	log := s.logger.With("remote", c.remote)
	log.Debug("RESP connection opened")
	defer log.Debug("RESP connection closed")

	for !c.quit {
		// Idle connections may wait up to IdleTimeout for a command; once
		// it starts, the whole command must arrive within ReadTimeout.
		// closing is checked after the deadline is set so Shutdown's
		// deadline always wins.
		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}
		if s.closing.Load() {
			return
		}
		if _, err := c.r.Peek(1); err != nil {
			if !errors.Is(err, io.EOF) && !isTimeout(err) {
				log.Debug("RESP read error", "error", err)
			}
			return
		}
		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}

		args, err := ReadCommand(c.r)
		if err != nil {
			if errors.Is(err, ErrProtocol) || errors.Is(err, ErrLimitExceeded) {
				log.Warn("RESP protocol violation", "error", err)
				s.reply(c, func(w *Writer) error { return w.Error("ERR " + err.Error()) })
			}
			return
		}
		if len(args) == 0 {
			continue
		}

		if !s.reply(c, func(w *Writer) error { return s.dispatch(c, args, log) }) {
			return
		}
	}
}

// reply runs write under the write deadline and flushes. It reports
// whether the connection is still usable.
func (s *Server) reply(c *conn, write func(*Writer) error) bool {
	if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return false
	}
	if err := write(c.w); err != nil {
		return false
	}
	return c.w.Flush() == nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
