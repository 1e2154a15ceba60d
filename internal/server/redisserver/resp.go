package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Protocol limits.
const (
	// MaxArgs bounds the elements of one command array.
	MaxArgs = 1024

	// MaxBulkLen bounds one bulk string; it matches the HTTP body limit.
	MaxBulkLen = 1 << 20

	// MaxInlineLen bounds an inline command line.
	MaxInlineLen = 64 << 10

	maxHeaderLen = 32
)

var (
	// ErrProtocol reports malformed input. The connection is closed.
	ErrProtocol = errors.New("resp: protocol error")

	// ErrLimitExceeded reports input over a protocol limit. The connection
	// is closed.
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// ReadCommand reads one command: a RESP array of bulk strings, or an inline
// line as typed into telnet. A blank inline line yields no arguments.
func ReadCommand(r *bufio.Reader) ([][]byte, error) {
	b, err := r.Peek(1)
	if err != nil {
		return nil, err
	}
	if b[0] != '*' {
		return readInline(r)
	}

	n, err := readHeader(r, '*')
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	if n > MaxArgs {
		return nil, fmt.Errorf("%w: %d arguments, max %d", ErrLimitExceeded, n, MaxArgs)
	}

	args := make([][]byte, 0, n)
	for range n {
		arg, err := readBulk(r)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func readInline(r *bufio.Reader) ([][]byte, error) {
	line, err := readLine(r, MaxInlineLen)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(string(line))
	args := make([][]byte, len(fields))
	for i, f := range fields {
		args[i] = []byte(f)
	}
	return args, nil
}

// readHeader reads a "<prefix><int>\r\n" line.
func readHeader(r *bufio.Reader, prefix byte) (int, error) {
	line, err := readLine(r, maxHeaderLen)
	if err != nil {
		return 0, err
	}
	if len(line) < 2 || line[0] != prefix {
		return 0, fmt.Errorf("%w: expected '%c', got %q", ErrProtocol, prefix, line)
	}
	n, err := strconv.Atoi(string(line[1:]))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid length %q", ErrProtocol, line[1:])
	}
	return n, nil
}

func readBulk(r *bufio.Reader) ([]byte, error) {
	n, err := readHeader(r, '$')
	if err != nil {
		return nil, err
	}
	switch {
	case n == -1:
		return nil, nil
	case n < 0:
		return nil, fmt.Errorf("%w: invalid bulk length %d", ErrProtocol, n)
	case n > MaxBulkLen:
		return nil, fmt.Errorf("%w: bulk of %d bytes, max %d", ErrLimitExceeded, n, MaxBulkLen)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, fmt.Errorf("%w: bulk not terminated by CRLF", ErrProtocol)
	}
	return buf[:n], nil
}

// readLine reads a CRLF-terminated line of at most maxLen bytes and
// returns it without the terminator.
func readLine(r *bufio.Reader, maxLen int) ([]byte, error) {
	var line []byte
	for {
		frag, err := r.ReadSlice('\n')
		line = append(line, frag...)
		if len(line) > maxLen+2 {
			return nil, fmt.Errorf("%w: line longer than %d bytes", ErrLimitExceeded, maxLen)
		}
		if err == nil {
			break
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return nil, err
		}
	}

	if !bytes.HasSuffix(line, []byte("\r\n")) {
		return nil, fmt.Errorf("%w: line not terminated by CRLF", ErrProtocol)
	}
	return line[:len(line)-2], nil
}

// Writer encodes RESP2 replies.
type Writer struct {
	*bufio.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{Writer: bufio.NewWriter(w)}
}

// SimpleString writes "+s".
func (w *Writer) SimpleString(s string) error {
	return w.line('+', oneLine(s))
}

// Error writes "-msg". msg should start with an error prefix such as ERR.
func (w *Writer) Error(msg string) error {
	return w.line('-', oneLine(msg))
}

// Integer writes ":n".
func (w *Writer) Integer(n int64) error {
	return w.line(':', strconv.FormatInt(n, 10))
}

// Null writes the null bulk string.
func (w *Writer) Null() error {
	_, err := w.WriteString("$-1\r\n")
	return err
}

// Bulk writes b as a bulk string, or the null bulk string when b is nil.
func (w *Writer) Bulk(b []byte) error {
	if b == nil {
		return w.Null()
	}
	if err := w.line('$', strconv.Itoa(len(b))); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

// BulkString writes s as a bulk string.
func (w *Writer) BulkString(s string) error {
	return w.Bulk([]byte(s))
}

// ArrayHeader starts an array of n elements.
func (w *Writer) ArrayHeader(n int) error {
	return w.line('*', strconv.Itoa(n))
}

func (w *Writer) line(prefix byte, s string) error {
	if err := w.WriteByte(prefix); err != nil {
		return err
	}
	if _, err := w.WriteString(s); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

// oneLine keeps simple strings and errors on a single protocol line.
func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// commandName upper-cases an ASCII command name.
func commandName(b []byte) string {
	return strings.ToUpper(string(b))
}
