package repl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func echoExec(ctx context.Context, cmd, args string) (string, error) {
	switch cmd {
	case "tokenize":
		return "T(" + args + ")", nil
	case "fail":
		return "", errors.New("boom")
	default:
		return "", ErrUnknownCommand
	}
}

func run(t *testing.T, input string) string {
	t.Helper()
	var out bytes.Buffer
	r := New(strings.NewReader(input), &out, echoExec, "tokenize", "fail")
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return out.String()
}

func TestREPL_Exit(t *testing.T) {
	for _, input := range []string{"exit\n", "quit\n", "", "\n\n"} {
		out := run(t, input)
		if !strings.HasPrefix(out, "tokvault> ") {
			t.Errorf("input %q: output = %q", input, out)
		}
	}
}

func TestREPL_Dispatch(t *testing.T) {
	out := run(t, "tokenize  My age is 43.\nexit\ntokenize never\n")

	if !strings.Contains(out, "T(My age is 43.)") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "never") {
		t.Errorf("input after exit was executed: %q", out)
	}
}

func TestREPL_Errors(t *testing.T) {
	out := run(t, "fail\ntok\nzzz\n")

	if !strings.Contains(out, "Error: boom") {
		t.Errorf("missing executor error: %q", out)
	}
	if !strings.Contains(out, `unknown command "tok" (did you mean tokenize?)`) {
		t.Errorf("missing suggestion: %q", out)
	}
	if !strings.Contains(out, `unknown command "zzz"`+"\n") {
		t.Errorf("missing plain unknown message: %q", out)
	}
}

func TestREPL_HelpAndHistory(t *testing.T) {
	out := run(t, "help\ntokenize a\nhistory\n")

	if !strings.Contains(out, "commands: exit, fail, help, history, quit, tokenize") {
		t.Errorf("help output = %q", out)
	}
	if !strings.Contains(out, "   2  tokenize a") {
		t.Errorf("history output = %q", out)
	}
}

func TestREPL_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	r := New(strings.NewReader("tokenize a\n"), &out, echoExec, "tokenize")
	if err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "T(a)") {
		t.Errorf("command ran after cancel: %q", out.String())
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory(3)
	for _, c := range []string{"a", "b", "c", "d"} {
		h.Add(c)
	}

	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}
	if got := h.Get(0); got != "d" {
		t.Errorf("Get(0) = %q, want d", got)
	}
	if got := h.Get(2); got != "b" {
		t.Errorf("Get(2) = %q, want b", got)
	}
	if got := h.Get(3); got != "" {
		t.Errorf("Get(3) = %q, want empty", got)
	}
	if got := strings.Join(h.Entries(), ""); got != "bcd" {
		t.Errorf("Entries() = %q", got)
	}
}

func TestCompleter(t *testing.T) {
	c := NewCompleter("tokenize", "detokenize", "stats")

	if got := c.Complete("de"); len(got) != 1 || got[0] != "detokenize" {
		t.Errorf("Complete(de) = %v", got)
	}
	if got := c.Complete(""); got != nil {
		t.Errorf("Complete(\"\") = %v, want nil", got)
	}
	if got := c.Complete("x"); len(got) != 0 {
		t.Errorf("Complete(x) = %v", got)
	}
	if got := strings.Join(c.Commands(), ","); got != "detokenize,stats,tokenize" {
		t.Errorf("Commands() = %s", got)
	}
}
