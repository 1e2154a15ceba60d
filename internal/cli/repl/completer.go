package repl

import (
	"sort"
	"strings"
)

// Completer suggests command names.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over commands.
func NewCompleter(commands ...string) *Completer {
	c := append([]string(nil), commands...)
	sort.Strings(c)
	return &Completer{commands: c}
}

// Commands returns the known commands in sorted order.
func (c *Completer) Commands() []string {
	return c.commands
}

// Complete returns commands starting with prefix. An empty prefix matches
// nothing.
func (c *Completer) Complete(prefix string) []string {
	if prefix == "" {
		return nil
	}
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
