package terminal

import (
	"bytes"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/cerebrum/bofh-go/internal/domain"
	"github.com/cerebrum/bofh-go/internal/ports"
)

var (
	colorMuted  = lipgloss.Color("8")
	colorGreen  = lipgloss.Color("2")
	colorRed    = lipgloss.Color("1")
	colorYellow = lipgloss.Color("3")
	colorBlue   = lipgloss.Color("4")
)

// lineRenderer draws the input line as a single terminal row. Lines wider
// than the terminal scroll horizontally around the cursor.
type lineRenderer struct {
	profile termenv.Profile

	prompt    lipgloss.Style
	normal    lipgloss.Style
	known     lipgloss.Style
	ambiguous lipgloss.Style
	unknown   lipgloss.Style
	hint      lipgloss.Style
	current   lipgloss.Style
	warning   lipgloss.Style
}

func newLineRenderer(w io.Writer, color bool) *lineRenderer {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	lip := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	lip.SetColorProfile(profile)
	return &lineRenderer{
		profile:   profile,
		prompt:    lip.NewStyle().Bold(true),
		normal:    lip.NewStyle().Bold(true).Foreground(colorBlue),
		known:     lip.NewStyle().Foreground(colorGreen),
		ambiguous: lip.NewStyle().Foreground(colorYellow),
		unknown:   lip.NewStyle().Foreground(colorRed),
		hint:      lip.NewStyle().Foreground(colorMuted),
		current:   lip.NewStyle().Foreground(colorMuted).Underline(true),
		warning:   lip.NewStyle().Foreground(colorYellow).Faint(true),
	}
}

// frame returns the bytes that redraw view on the current row of a
// terminal width columns wide, leaving the cursor in place.
func (r *lineRenderer) frame(view ports.View, width int) []byte {
	if width <= 1 {
		width = 80
	}
	var buf bytes.Buffer
	out := termenv.NewOutput(&buf, termenv.WithProfile(r.profile))

	buf.WriteByte('\r')
	promptStyle := r.prompt
	if view.Mode == domain.ModeViNormal {
		promptStyle = r.normal
	}
	buf.WriteString(promptStyle.Render(view.Prompt))

	avail := width - 1 - runewidth.StringWidth(view.Prompt)
	if avail < 1 {
		avail = 1
	}
	runes := []rune(view.Line)
	cursor := clampInt(view.Cursor, 0, len(runes))
	start := scrollStart(runes, cursor, avail)
	end := start
	used := 0
	for end < len(runes) {
		w := runewidth.RuneWidth(runes[end])
		if used+w > avail {
			break
		}
		used += w
		end++
	}

	r.writeLine(&buf, runes, start, end, view)

	back := runesWidth(runes[cursor:end])
	if hint := r.hintText(view.Hint); hint != "" && end == len(runes) && start == 0 {
		hint = runewidth.Truncate(hint, avail-used, "")
		if hint != "" {
			buf.WriteString(r.styleHint(view.Hint, hint))
			back += runewidth.StringWidth(hint)
		}
	}
	out.ClearLineRight()
	if back > 0 {
		out.CursorBack(back)
	}
	return buf.Bytes()
}

// writeLine styles the visible runes, colouring the command word by the
// catalog status.
func (r *lineRenderer) writeLine(buf *bytes.Buffer, runes []rune, start, end int, view ports.View) {
	split := clampInt(view.CommandEnd, start, end)
	if split > start {
		word := string(runes[start:split])
		if style, ok := r.statusStyle(view.Status); ok {
			word = style.Render(word)
		}
		buf.WriteString(word)
	}
	buf.WriteString(string(runes[split:end]))
}

func (r *lineRenderer) statusStyle(status domain.CommandStatus) (lipgloss.Style, bool) {
	switch status {
	case domain.StatusKnown:
		return r.known, true
	case domain.StatusAmbiguous:
		return r.ambiguous, true
	case domain.StatusUnknown:
		return r.unknown, true
	}
	return lipgloss.Style{}, false
}

// hintText is the plain text of a hint as it appears after the line.
func (r *lineRenderer) hintText(h *domain.Hint) string {
	if h == nil {
		return ""
	}
	var b strings.Builder
	switch h.Kind {
	case domain.HintRemainder:
		return h.Text
	case domain.HintArguments:
		if h.Leading {
			b.WriteByte(' ')
		}
		for i, arg := range h.Args {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(placeholder(arg))
		}
		return b.String()
	}
	if h.Text == "" {
		return ""
	}
	return "  (" + h.Text + ")"
}

// styleHint applies colour to the already truncated hint text.
func (r *lineRenderer) styleHint(h *domain.Hint, text string) string {
	switch h.Kind {
	case domain.HintUnknownCommand, domain.HintIncompleteCommand, domain.HintTooManyArguments:
		return r.warning.Render(text)
	case domain.HintArguments:
		return r.styleArguments(h, text)
	}
	return r.hint.Render(text)
}

// styleArguments renders required placeholders bold and underlines the
// current argument. A placeholder cut off by truncation stays plain.
func (r *lineRenderer) styleArguments(h *domain.Hint, text string) string {
	var b strings.Builder
	rest := text
	for _, arg := range h.Args {
		p := placeholder(arg)
		i := strings.Index(rest, p)
		if i < 0 {
			break
		}
		if i > 0 {
			b.WriteString(r.hint.Render(rest[:i]))
		}
		style := r.hint
		if arg.Current {
			style = r.current
		}
		if arg.Required {
			style = style.Bold(true)
		}
		b.WriteString(style.Render(p))
		rest = rest[i+len(p):]
	}
	if rest != "" {
		b.WriteString(r.hint.Render(rest))
	}
	return b.String()
}

func placeholder(arg domain.HintArgument) string {
	name := arg.Name
	if arg.Repeat {
		name += "..."
	}
	if arg.Required {
		return "<" + name + ">"
	}
	return "[" + name + "]"
}

// scrollStart picks the first visible rune so that the cursor stays on
// screen.
func scrollStart(runes []rune, cursor, avail int) int {
	if runesWidth(runes) <= avail {
		return 0
	}
	start := cursor
	used := 0
	for start > 0 {
		w := runewidth.RuneWidth(runes[start-1])
		if used+w >= avail {
			break
		}
		used += w
		start--
	}
	return start
}

func runesWidth(runes []rune) int {
	n := 0
	for _, r := range runes {
		n += runewidth.RuneWidth(r)
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
