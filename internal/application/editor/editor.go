// Package editor implements the line editor behind the interactive shell.
//
// The editor is a state machine over three modes (Emacs, vi insert and vi
// normal). Each keystroke is looked up in the keymap of the active mode and
// either edits the buffer in place or yields an [Outcome] the shell acts
// on: completion, submission, cancellation or exit. The editor does no I/O.
package editor

import (
	"unicode"
	"unicode/utf8"

	"github.com/cerebrum/bofh-go/internal/domain"
)

// Outcome tells the shell what a keystroke asks for beyond editing.
type Outcome int

const (
	// OutcomeRedraw means the buffer may have changed.
	OutcomeRedraw Outcome = iota
	OutcomeComplete
	OutcomeSubmit
	OutcomeCancel
	OutcomeExit
	OutcomeClearScreen
	// OutcomeBell means the key had no effect.
	OutcomeBell
)

// Options configures a new editor.
type Options struct {
	Mode      domain.EditMode
	ToggleKey domain.Key
	KillRing  int
}

// command is one editing action bound to a key.
type command func(e *Editor) Outcome

type span struct{ start, end int }

// Editor holds the edit buffer and cursor for the line being typed.
type Editor struct {
	buf     []rune
	pos     int
	mode    domain.EditMode
	toggle  domain.Key
	history *History
	kill    *killRing
	keymaps map[domain.EditMode]map[domain.Key]command

	// offset counts steps back from the draft while walking history.
	offset int
	draft  []rune

	// pending is the vi operator awaiting its motion.
	pending rune
	// lastYank is the span inserted by the previous keystroke, if it
	// was a yank.
	lastYank *span
	prevYank *span
}

// New returns an editor that navigates history.
func New(history *History, opts Options) *Editor {
	if history == nil {
		history = NewHistory(0)
	}
	if opts.KillRing <= 0 {
		opts.KillRing = domain.DefaultKillRing
	}
	e := &Editor{
		mode:    opts.Mode,
		toggle:  opts.ToggleKey,
		history: history,
		kill:    newKillRing(opts.KillRing),
	}
	e.keymaps = map[domain.EditMode]map[domain.Key]command{
		domain.ModeEmacs:    emacsKeymap(),
		domain.ModeViInsert: viInsertKeymap(),
		domain.ModeViNormal: viNormalKeymap(),
	}
	return e
}

// Handle applies one keystroke.
func (e *Editor) Handle(key domain.Key) Outcome {
	e.prevYank, e.lastYank = e.lastYank, nil

	if e.toggle != (domain.Key{}) && key == e.toggle {
		e.pending = 0
		if e.mode == domain.ModeEmacs {
			e.SetMode(domain.ModeViInsert)
		} else {
			e.SetMode(domain.ModeEmacs)
		}
		return OutcomeRedraw
	}
	if e.mode == domain.ModeViNormal && e.pending != 0 {
		return e.operate(key)
	}
	if cmd, ok := e.keymaps[e.mode][key]; ok {
		return cmd(e)
	}
	if key.Printable() && e.mode != domain.ModeViNormal {
		e.insert(string(key.Rune))
		return OutcomeRedraw
	}
	return OutcomeBell
}

// Mode returns the active mode.
func (e *Editor) Mode() domain.EditMode {
	return e.mode
}

// SetMode switches mode, adjusting the cursor the way vi does when
// leaving insert mode.
func (e *Editor) SetMode(mode domain.EditMode) {
	if mode == domain.ModeViNormal && e.mode != domain.ModeViNormal && e.pos > 0 {
		e.pos--
	}
	e.mode = mode
	e.pending = 0
	e.clamp()
}

// Line returns the buffer contents.
func (e *Editor) Line() string {
	return string(e.buf)
}

// Cursor returns the cursor as a rune offset.
func (e *Editor) Cursor() int {
	return e.pos
}

// CursorByte returns the cursor as a byte offset into Line.
func (e *Editor) CursorByte() int {
	return len(string(e.buf[:e.pos]))
}

// SetLine replaces the buffer and puts the cursor at the end.
func (e *Editor) SetLine(line string) {
	e.buf = []rune(line)
	e.pos = len(e.buf)
	e.clamp()
}

// Replace substitutes the byte range [start, end) of Line with text and
// leaves the cursor after it. In vi normal mode the cursor stays on the
// last rune.
func (e *Editor) Replace(start, end int, text string) {
	line := e.Line()
	if start < 0 || end > len(line) || start > end {
		return
	}
	rs := utf8.RuneCountInString(line[:start])
	re := utf8.RuneCountInString(line[:end])
	ins := []rune(text)
	buf := make([]rune, 0, len(e.buf)-(re-rs)+len(ins))
	buf = append(buf, e.buf[:rs]...)
	buf = append(buf, ins...)
	buf = append(buf, e.buf[re:]...)
	e.buf = buf
	e.pos = rs + len(ins)
	e.clamp()
}

// Reset clears the buffer for a new line. History navigation restarts at
// the newest entry and vi users start the line in insert mode.
func (e *Editor) Reset() {
	e.buf = nil
	e.pos = 0
	e.offset = 0
	e.draft = nil
	e.pending = 0
	e.lastYank = nil
	if e.mode == domain.ModeViNormal {
		e.mode = domain.ModeViInsert
	}
}

func (e *Editor) clamp() {
	if e.pos < 0 {
		e.pos = 0
	}
	limit := len(e.buf)
	if e.mode == domain.ModeViNormal && limit > 0 {
		limit--
	}
	if e.pos > limit {
		e.pos = limit
	}
}

func (e *Editor) insert(text string) {
	ins := []rune(text)
	buf := make([]rune, 0, len(e.buf)+len(ins))
	buf = append(buf, e.buf[:e.pos]...)
	buf = append(buf, ins...)
	buf = append(buf, e.buf[e.pos:]...)
	e.buf = buf
	e.pos += len(ins)
}

// cut removes [start, end) and returns the removed text.
func (e *Editor) cut(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(e.buf) {
		end = len(e.buf)
	}
	if start >= end {
		return ""
	}
	removed := string(e.buf[start:end])
	e.buf = append(e.buf[:start:start], e.buf[end:]...)
	e.pos = start
	return removed
}

func (e *Editor) killRange(start, end int) {
	e.kill.push(e.cut(start, end))
	e.clamp()
}

func (e *Editor) yankText(text string) {
	start := e.pos
	e.insert(text)
	e.lastYank = &span{start: start, end: e.pos}
}

// historyPrev recalls the previous entry. The buffer receives a copy, so
// editing the recalled line never touches the log.
func (e *Editor) historyPrev() Outcome {
	n := e.history.Len()
	if e.offset >= n {
		return OutcomeBell
	}
	if e.offset == 0 {
		e.draft = append([]rune(nil), e.buf...)
	}
	e.offset++
	e.load([]rune(e.history.At(n - e.offset)))
	return OutcomeRedraw
}

func (e *Editor) historyNext() Outcome {
	if e.offset == 0 {
		return OutcomeBell
	}
	e.offset--
	if e.offset == 0 {
		e.load(append([]rune(nil), e.draft...))
		return OutcomeRedraw
	}
	e.load([]rune(e.history.At(e.history.Len() - e.offset)))
	return OutcomeRedraw
}

func (e *Editor) load(line []rune) {
	e.buf = line
	e.pos = len(line)
	e.clamp()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isBlank(r rune) bool {
	return unicode.IsSpace(r)
}

func notBlank(r rune) bool {
	return !unicode.IsSpace(r)
}

// wordBack returns the start of the word before pos.
func wordBack(buf []rune, pos int, in func(rune) bool) int {
	for pos > 0 && !in(buf[pos-1]) {
		pos--
	}
	for pos > 0 && in(buf[pos-1]) {
		pos--
	}
	return pos
}

// wordForward returns the position just past the word at or after pos.
func wordForward(buf []rune, pos int, in func(rune) bool) int {
	for pos < len(buf) && !in(buf[pos]) {
		pos++
	}
	for pos < len(buf) && in(buf[pos]) {
		pos++
	}
	return pos
}

// nextWordStart returns the start of the next word after pos (vi "w").
func nextWordStart(buf []rune, pos int) int {
	for pos < len(buf) && notBlank(buf[pos]) {
		pos++
	}
	for pos < len(buf) && isBlank(buf[pos]) {
		pos++
	}
	return pos
}

// wordEnd returns the last rune of the word ending after pos (vi "e").
func wordEnd(buf []rune, pos int) int {
	if pos+1 >= len(buf) {
		return pos
	}
	pos++
	for pos < len(buf) && isBlank(buf[pos]) {
		pos++
	}
	for pos+1 < len(buf) && notBlank(buf[pos+1]) {
		pos++
	}
	if pos >= len(buf) {
		pos = len(buf) - 1
	}
	return pos
}

func firstNonBlank(buf []rune) int {
	for i, r := range buf {
		if notBlank(r) {
			return i
		}
	}
	return 0
}
