package repl

// DefaultHistorySize is how many lines a shell remembers.
const DefaultHistorySize = 500

// History is a bounded in-memory command history.
type History struct {
	entries []string
	maxSize int
}

// NewHistory creates a History holding at most maxSize entries.
func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	return &History{maxSize: maxSize}
}

// Add appends a command, dropping the oldest past maxSize.
func (h *History) Add(cmd string) {
	h.entries = append(h.entries, cmd)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[len(h.entries)-h.maxSize:]
	}
}

// Get returns the history entry at index (0 = most recent).
func (h *History) Get(index int) string {
	if index < 0 || index >= len(h.entries) {
		return ""
	}
	return h.entries[len(h.entries)-1-index]
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns the entries oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}
