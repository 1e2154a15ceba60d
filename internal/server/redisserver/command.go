package redisserver

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yndnr/tokvault-go/internal/core/domain"
	"github.com/yndnr/tokvault-go/pkg/token"
)

const (
	errNoAuth    = "NOAUTH Authentication required."
	errWrongPass = "WRONGPASS invalid username-password pair or user is disabled."
	errVault     = "ERR vault operation failed"
)

// commandSpec describes one supported command. arity follows Redis: a
// positive value is exact, a negative value is a minimum.
type commandSpec struct {
	arity   int
	preAuth bool
	run     func(s *Server, c *conn, args [][]byte, log *slog.Logger) error
}

var commands map[string]commandSpec

func init() {
	commands = map[string]commandSpec{
		"PING":          {arity: -1, preAuth: true, run: cmdPing},
		"QUIT":          {arity: -1, preAuth: true, run: cmdQuit},
		"AUTH":          {arity: -2, preAuth: true, run: cmdAuth},
		"HELLO":         {arity: -1, preAuth: true, run: cmdHello},
		"ECHO":          {arity: 2, run: cmdEcho},
		"SELECT":        {arity: 2, run: cmdSelect},
		"CLIENT":        {arity: -2, run: cmdClient},
		"COMMAND":       {arity: -1, run: cmdCommand},
		"DBSIZE":        {arity: 1, run: cmdDBSize},
		"INFO":          {arity: -1, run: cmdInfo},
		"TV.TOKENIZE":   {arity: -2, run: cmdTokenize},
		"TV.DETOKENIZE": {arity: -2, run: cmdDetokenize},
	}
}

// dispatch runs one command and writes its reply. The returned error is a
// write failure; command failures are replies.
func (s *Server) dispatch(c *conn, args [][]byte, log *slog.Logger) error {
	name := commandName(args[0])
	def, ok := commands[name]
	if !ok {
		s.observe("unknown", false)
		return c.w.Error(fmt.Sprintf("ERR unknown command '%s'", truncate(string(args[0]), 64)))
	}

	if !def.preAuth && !c.authed {
		s.observe(name, false)
		return c.w.Error(errNoAuth)
	}
	if (def.arity > 0 && len(args) != def.arity) || (def.arity < 0 && len(args) < -def.arity) {
		s.observe(name, false)
		return c.w.Error(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
	}
	if c.limiter != nil && !c.limiter.Allow() {
		s.observe(name, false)
		return c.w.Error("ERR " + domain.ErrRateLimited.Code + " rate limit exceeded")
	}

	return def.run(s, c, args, log)
}

func (s *Server) observe(name string, ok bool) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	s.metrics.ObserveCommand(name, status)
}

func cmdPing(s *Server, c *conn, args [][]byte, _ *slog.Logger) error {
	s.observe("PING", true)
	if len(args) > 1 {
		return c.w.Bulk(args[1])
	}
	return c.w.SimpleString("PONG")
}

func cmdQuit(s *Server, c *conn, _ [][]byte, _ *slog.Logger) error {
	s.observe("QUIT", true)
	c.quit = true
	return c.w.SimpleString("OK")
}

// cmdAuth accepts AUTH password and AUTH username password. The username
// is ignored.
func cmdAuth(s *Server, c *conn, args [][]byte, log *slog.Logger) error {
	if len(args) > 3 {
		s.observe("AUTH", false)
		return c.w.Error("ERR wrong number of arguments for 'auth' command")
	}
	if s.cfg.APIKey == "" {
		s.observe("AUTH", false)
		return c.w.Error("ERR AUTH called without any password configured for the default user")
	}

	if !token.Equal(string(args[len(args)-1]), s.cfg.APIKey) {
		s.observe("AUTH", false)
		log.Warn("RESP authentication failed")
		return c.w.Error(errWrongPass)
	}

	c.authed = true
	s.observe("AUTH", true)
	return c.w.SimpleString("OK")
}

// cmdHello declines RESP3 so clients fall back to RESP2 and AUTH.
func cmdHello(s *Server, c *conn, _ [][]byte, _ *slog.Logger) error {
	s.observe("HELLO", false)
	return c.w.Error("NOPROTO unsupported protocol version")
}

func cmdEcho(s *Server, c *conn, args [][]byte, _ *slog.Logger) error {
	s.observe("ECHO", true)
	return c.w.Bulk(args[1])
}

func cmdSelect(s *Server, c *conn, args [][]byte, _ *slog.Logger) error {
	if string(args[1]) != "0" {
		s.observe("SELECT", false)
		return c.w.Error("ERR DB index is out of range")
	}
	s.observe("SELECT", true)
	return c.w.SimpleString("OK")
}

// cmdClient acknowledges the client metadata calls issued by common
// client libraries on connect.
func cmdClient(s *Server, c *conn, args [][]byte, _ *slog.Logger) error {
	switch commandName(args[1]) {
	case "SETNAME", "SETINFO":
		s.observe("CLIENT", true)
		return c.w.SimpleString("OK")
	default:
		s.observe("CLIENT", false)
		return c.w.Error("ERR unsupported CLIENT subcommand")
	}
}

// cmdCommand returns an empty command table for interactive clients.
func cmdCommand(s *Server, c *conn, _ [][]byte, _ *slog.Logger) error {
	s.observe("COMMAND", true)
	return c.w.ArrayHeader(0)
}

func cmdDBSize(s *Server, c *conn, _ [][]byte, _ *slog.Logger) error {
	s.observe("DBSIZE", true)
	return c.w.Integer(int64(s.tokenizer.Stats().Entries))
}

func cmdInfo(s *Server, c *conn, _ [][]byte, _ *slog.Logger) error {
	stats := s.tokenizer.Stats()

	var b bytes.Buffer
	b.WriteString("# Vault\r\n")
	fmt.Fprintf(&b, "entries:%d\r\n", stats.Entries)
	fmt.Fprintf(&b, "backend:%s\r\n", stats.Backend)
	fmt.Fprintf(&b, "detokenize_policy:%s\r\n", s.tokenizer.Policy())

	s.observe("INFO", true)
	return c.w.Bulk(b.Bytes())
}

func cmdTokenize(s *Server, c *conn, args [][]byte, log *slog.Logger) error {
	return s.vaultCommand(c, "TV.TOKENIZE", args, log, s.tokenizer.Tokenize)
}

func cmdDetokenize(s *Server, c *conn, args [][]byte, log *slog.Logger) error {
	return s.vaultCommand(c, "TV.DETOKENIZE", args, log, s.tokenizer.Detokenize)
}

// vaultCommand runs op over the arguments joined by spaces. Failures are
// logged with their code and answered with a generic error.
func (s *Server) vaultCommand(c *conn, name string, args [][]byte, log *slog.Logger,
	op func(context.Context, string) (string, error)) error {
	text := string(bytes.Join(args[1:], []byte(" ")))

	out, err := op(context.Background(), text)
	if err != nil {
		s.observe(name, false)
		log.Error("vault operation failed",
			"op", name,
			"code", domain.GetErrorCode(err),
			"error", err)
		return c.w.Error(errVault)
	}

	s.observe(name, true)
	return c.w.BulkString(out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
