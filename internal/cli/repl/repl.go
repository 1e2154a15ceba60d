package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnknownCommand is returned by an Executor for a command it does not
// handle.
var ErrUnknownCommand = errors.New("unknown command")

// Executor runs one command with its (already trimmed) argument text and
// returns the text to print.
type Executor func(ctx context.Context, cmd, args string) (string, error)

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	exec      Executor
	completer *Completer
	history   *History
}

// New creates a REPL that dispatches commands to exec. commands lists the
// names exec understands, for help and suggestions.
func New(input io.Reader, output io.Writer, exec Executor, commands ...string) *REPL {
	return &REPL{
		input:     input,
		output:    output,
		prompt:    "tokvault> ",
		exec:      exec,
		completer: NewCompleter(append(commands, builtins...)...),
		history:   NewHistory(DefaultHistorySize),
	}
}

var builtins = []string{"help", "history", "exit", "quit"}

// History returns the session history.
func (r *REPL) History() *History {
	return r.history
}

// Run starts the REPL loop. It returns nil on exit, quit, EOF or when ctx
// is done.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.input)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt)

		if !scanner.Scan() {
			fmt.Fprintln(r.output)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.history.Add(line)

		cmd, args, _ := strings.Cut(line, " ")
		args = strings.TrimSpace(args)

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			fmt.Fprintf(r.output, "commands: %s\n", strings.Join(r.completer.Commands(), ", "))
			continue
		case "history":
			for i, e := range r.history.Entries() {
				fmt.Fprintf(r.output, "%4d  %s\n", i+1, e)
			}
			continue
		}

		out, err := r.exec(ctx, cmd, args)
		switch {
		case errors.Is(err, ErrUnknownCommand):
			msg := fmt.Sprintf("unknown command %q", cmd)
			if s := r.completer.Complete(cmd); len(s) > 0 {
				msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(s, ", "))
			}
			fmt.Fprintln(r.output, msg)
		case err != nil:
			fmt.Fprintf(r.output, "Error: %v\n", err)
		default:
			fmt.Fprintln(r.output, out)
		}
	}
}
