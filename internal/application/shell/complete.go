package shell

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/cerebrum/bofh-go/internal/application/completion"
)

// cycle tracks circular completion across repeated Tab presses.
type cycle struct {
	candidates []string
	index      int
	// start and end delimit the inserted candidate in bytes.
	start, end int
}

func (s *Shell) complete(ctx context.Context) {
	if s.cycle != nil {
		s.advanceCycle()
		return
	}

	line := s.editor.Line()
	result := s.engine.Complete(ctx, s.catalog.Snapshot(), s.catalog.Source(s.session), line, s.editor.CursorByte())
	switch n := len(result.Candidates); {
	case n == 1:
		s.editor.Replace(result.Start, result.End, completion.Quote(result.Candidates[0])+" ")
	case n > 1:
		typed := line[result.Start:result.End]
		prefix := commonPrefix(result.Candidates)
		extend := len(prefix) > len(typed) && completion.Quote(prefix) == prefix
		if s.opts.Circular {
			if extend {
				s.editor.Replace(result.Start, result.End, prefix)
				return
			}
			s.cycle = &cycle{candidates: result.Candidates, index: -1, start: result.Start, end: result.End}
			s.advanceCycle()
			return
		}
		if extend {
			s.editor.Replace(result.Start, result.End, prefix)
		}
		_ = s.terminal.ShowCandidates(result.Candidates)
	default:
		s.hint = result.Hint
	}
}

func (s *Shell) advanceCycle() {
	c := s.cycle
	c.index = (c.index + 1) % len(c.candidates)
	text := completion.Quote(c.candidates[c.index])
	s.editor.Replace(c.start, c.end, text)
	c.end = c.start + len(text)
}

// commonPrefix is the longest prefix shared by values, cut on a rune
// boundary.
func commonPrefix(values []string) string {
	if len(values) == 0 {
		return ""
	}
	prefix := values[0]
	for _, v := range values[1:] {
		for !strings.HasPrefix(v, prefix) {
			_, size := utf8.DecodeLastRuneInString(prefix)
			prefix = prefix[:len(prefix)-size]
		}
	}
	return prefix
}
