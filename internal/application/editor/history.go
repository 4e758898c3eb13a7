package editor

import "strings"

// History is the session's log of submitted lines. Entries are appended
// and never modified; when a cap is set the oldest entries fall off.
type History struct {
	entries []string
	max     int
}

// NewHistory returns an empty log holding at most max entries. A max of
// zero means unbounded.
func NewHistory(max int) *History {
	return &History{max: max}
}

// Load seeds the log with previously persisted lines, oldest first. The
// same filtering as Append applies.
func (h *History) Load(lines []string) {
	for _, line := range lines {
		h.Append(line)
	}
}

// Append adds line unless it is blank or equal to the newest entry. It
// reports whether the log grew.
func (h *History) Append(line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return false
	}
	h.entries = append(h.entries, line)
	if h.max > 0 && len(h.entries) > h.max {
		h.entries = append([]string(nil), h.entries[len(h.entries)-h.max:]...)
	}
	return true
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// At returns entry i, oldest first.
func (h *History) At(i int) string {
	return h.entries[i]
}

// Entries returns a copy of the log, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Recent returns up to n of the newest entries, oldest first.
func (h *History) Recent(n int) []string {
	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	return append([]string(nil), h.entries[len(h.entries)-n:]...)
}
