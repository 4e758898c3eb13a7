package editor

import "github.com/cerebrum/bofh-go/internal/domain"

func moveTo(pos func(e *Editor) int) command {
	return func(e *Editor) Outcome {
		e.pos = pos(e)
		e.clamp()
		return OutcomeRedraw
	}
}

func lineStart(*Editor) int   { return 0 }
func lineEnd(e *Editor) int   { return len(e.buf) }
func charLeft(e *Editor) int  { return e.pos - 1 }
func charRight(e *Editor) int { return e.pos + 1 }
func emacsWordLeft(e *Editor) int {
	return wordBack(e.buf, e.pos, isWordRune)
}
func emacsWordRight(e *Editor) int {
	return wordForward(e.buf, e.pos, isWordRune)
}

func submit(*Editor) Outcome   { return OutcomeSubmit }
func complete(*Editor) Outcome { return OutcomeComplete }
func cancel(*Editor) Outcome   { return OutcomeCancel }

func clearScreen(*Editor) Outcome { return OutcomeClearScreen }

func historyPrev(e *Editor) Outcome { return e.historyPrev() }
func historyNext(e *Editor) Outcome { return e.historyNext() }

func backspace(e *Editor) Outcome {
	if e.pos == 0 {
		return OutcomeBell
	}
	e.cut(e.pos-1, e.pos)
	return OutcomeRedraw
}

func deleteChar(e *Editor) Outcome {
	if e.pos >= len(e.buf) {
		return OutcomeBell
	}
	e.cut(e.pos, e.pos+1)
	e.clamp()
	return OutcomeRedraw
}

// deleteOrExit is Ctrl-D: end of input on an empty line.
func deleteOrExit(e *Editor) Outcome {
	if len(e.buf) == 0 {
		return OutcomeExit
	}
	return deleteChar(e)
}

func exitOnEmpty(e *Editor) Outcome {
	if len(e.buf) == 0 {
		return OutcomeExit
	}
	return OutcomeBell
}

func killToEnd(e *Editor) Outcome {
	e.killRange(e.pos, len(e.buf))
	return OutcomeRedraw
}

func killToStart(e *Editor) Outcome {
	e.killRange(0, e.pos)
	return OutcomeRedraw
}

// killWordBack is Ctrl-W, which cuts back to whitespace.
func killWordBack(e *Editor) Outcome {
	e.killRange(wordBack(e.buf, e.pos, notBlank), e.pos)
	return OutcomeRedraw
}

func killWordForward(e *Editor) Outcome {
	e.killRange(e.pos, wordForward(e.buf, e.pos, isWordRune))
	return OutcomeRedraw
}

func yank(e *Editor) Outcome {
	text, ok := e.kill.top()
	if !ok {
		return OutcomeBell
	}
	e.yankText(text)
	return OutcomeRedraw
}

// yankPop replaces the text just yanked with the next kill ring entry.
// It only works directly after a yank.
func yankPop(e *Editor) Outcome {
	if e.prevYank == nil {
		return OutcomeBell
	}
	text, ok := e.kill.rotate()
	if !ok {
		return OutcomeBell
	}
	e.cut(e.prevYank.start, e.prevYank.end)
	e.yankText(text)
	return OutcomeRedraw
}

func transpose(e *Editor) Outcome {
	if len(e.buf) < 2 || e.pos == 0 {
		return OutcomeBell
	}
	at := e.pos
	if at == len(e.buf) {
		at--
	}
	e.buf[at-1], e.buf[at] = e.buf[at], e.buf[at-1]
	e.pos = at + 1
	return OutcomeRedraw
}

func toNormal(e *Editor) Outcome {
	e.SetMode(domain.ModeViNormal)
	return OutcomeRedraw
}

func emacsKeymap() map[domain.Key]command {
	return map[domain.Key]command{
		domain.Ctrl('a'):                    moveTo(lineStart),
		domain.Special(domain.KeyHome):      moveTo(lineStart),
		domain.Ctrl('e'):                    moveTo(lineEnd),
		domain.Special(domain.KeyEnd):       moveTo(lineEnd),
		domain.Ctrl('b'):                    moveTo(charLeft),
		domain.Special(domain.KeyLeft):      moveTo(charLeft),
		domain.Ctrl('f'):                    moveTo(charRight),
		domain.Special(domain.KeyRight):     moveTo(charRight),
		domain.Alt('b'):                     moveTo(emacsWordLeft),
		domain.Alt('f'):                     moveTo(emacsWordRight),
		domain.Special(domain.KeyBackspace): backspace,
		domain.Ctrl('h'):                    backspace,
		domain.Special(domain.KeyDelete):    deleteChar,
		domain.Ctrl('d'):                    deleteOrExit,
		domain.Ctrl('k'):                    killToEnd,
		domain.Ctrl('u'):                    killToStart,
		domain.Ctrl('w'):                    killWordBack,
		domain.Alt('d'):                     killWordForward,
		domain.Ctrl('y'):                    yank,
		domain.Alt('y'):                     yankPop,
		domain.Ctrl('t'):                    transpose,
		domain.Ctrl('p'):                    historyPrev,
		domain.Special(domain.KeyUp):        historyPrev,
		domain.Ctrl('n'):                    historyNext,
		domain.Special(domain.KeyDown):      historyNext,
		domain.Special(domain.KeyTab):       complete,
		domain.Special(domain.KeyEnter):     submit,
		domain.Ctrl('j'):                    submit,
		domain.Ctrl('c'):                    cancel,
		domain.Ctrl('g'):                    cancel,
		domain.Ctrl('l'):                    clearScreen,
	}
}

func viInsertKeymap() map[domain.Key]command {
	return map[domain.Key]command{
		domain.Special(domain.KeyBackspace): backspace,
		domain.Ctrl('h'):                    backspace,
		domain.Special(domain.KeyDelete):    deleteChar,
		domain.Special(domain.KeyLeft):      moveTo(charLeft),
		domain.Special(domain.KeyRight):     moveTo(charRight),
		domain.Special(domain.KeyHome):      moveTo(lineStart),
		domain.Special(domain.KeyEnd):       moveTo(lineEnd),
		domain.Special(domain.KeyUp):        historyPrev,
		domain.Special(domain.KeyDown):      historyNext,
		domain.Ctrl('w'):                    killWordBack,
		domain.Ctrl('u'):                    killToStart,
		domain.Special(domain.KeyTab):       complete,
		domain.Special(domain.KeyEnter):     submit,
		domain.Ctrl('j'):                    submit,
		domain.Special(domain.KeyEscape):    toNormal,
		domain.Ctrl('c'):                    cancel,
		domain.Ctrl('d'):                    exitOnEmpty,
		domain.Ctrl('l'):                    clearScreen,
	}
}

func viNormalKeymap() map[domain.Key]command {
	enter := func(pos func(e *Editor) int) command {
		return func(e *Editor) Outcome {
			e.mode = domain.ModeViInsert
			e.pos = pos(e)
			e.clamp()
			return OutcomeRedraw
		}
	}
	pending := func(op rune) command {
		return func(e *Editor) Outcome {
			e.pending = op
			return OutcomeRedraw
		}
	}
	put := func(after bool) command {
		return func(e *Editor) Outcome {
			text, ok := e.kill.top()
			if !ok {
				return OutcomeBell
			}
			if after && len(e.buf) > 0 {
				e.pos++
			}
			e.insert(text)
			e.pos--
			e.clamp()
			return OutcomeRedraw
		}
	}
	deleteBefore := func(e *Editor) Outcome {
		if e.pos == 0 {
			return OutcomeBell
		}
		e.killRange(e.pos-1, e.pos)
		return OutcomeRedraw
	}
	deleteUnder := func(e *Editor) Outcome {
		if len(e.buf) == 0 {
			return OutcomeBell
		}
		e.killRange(e.pos, e.pos+1)
		return OutcomeRedraw
	}
	killRest := func(e *Editor) Outcome {
		e.killRange(e.pos, len(e.buf))
		return OutcomeRedraw
	}
	changeRest := func(e *Editor) Outcome {
		e.kill.push(e.cut(e.pos, len(e.buf)))
		e.mode = domain.ModeViInsert
		return OutcomeRedraw
	}
	substitute := func(e *Editor) Outcome {
		e.kill.push(e.cut(e.pos, e.pos+1))
		e.mode = domain.ModeViInsert
		return OutcomeRedraw
	}
	substituteLine := func(e *Editor) Outcome {
		e.kill.push(e.cut(0, len(e.buf)))
		e.mode = domain.ModeViInsert
		return OutcomeRedraw
	}

	return map[domain.Key]command{
		domain.Char('h'):                    moveTo(charLeft),
		domain.Special(domain.KeyLeft):      moveTo(charLeft),
		domain.Special(domain.KeyBackspace): moveTo(charLeft),
		domain.Char('l'):                    moveTo(charRight),
		domain.Char(' '):                    moveTo(charRight),
		domain.Special(domain.KeyRight):     moveTo(charRight),
		domain.Char('0'):                    moveTo(lineStart),
		domain.Special(domain.KeyHome):      moveTo(lineStart),
		domain.Char('^'):                    moveTo(func(e *Editor) int { return firstNonBlank(e.buf) }),
		domain.Char('$'):                    moveTo(lineEnd),
		domain.Special(domain.KeyEnd):       moveTo(lineEnd),
		domain.Char('w'):                    moveTo(func(e *Editor) int { return nextWordStart(e.buf, e.pos) }),
		domain.Char('b'):                    moveTo(func(e *Editor) int { return wordBack(e.buf, e.pos, notBlank) }),
		domain.Char('e'):                    moveTo(func(e *Editor) int { return wordEnd(e.buf, e.pos) }),
		domain.Char('x'):                    deleteUnder,
		domain.Special(domain.KeyDelete):    deleteUnder,
		domain.Char('X'):                    deleteBefore,
		domain.Char('D'):                    killRest,
		domain.Char('C'):                    changeRest,
		domain.Char('s'):                    substitute,
		domain.Char('S'):                    substituteLine,
		domain.Char('d'):                    pending('d'),
		domain.Char('c'):                    pending('c'),
		domain.Char('y'):                    pending('y'),
		domain.Char('r'):                    pending('r'),
		domain.Char('p'):                    put(true),
		domain.Char('P'):                    put(false),
		domain.Char('i'):                    enter(func(e *Editor) int { return e.pos }),
		domain.Char('a'):                    enter(func(e *Editor) int { return e.pos + 1 }),
		domain.Char('I'):                    enter(func(e *Editor) int { return firstNonBlank(e.buf) }),
		domain.Char('A'):                    enter(lineEnd),
		domain.Char('k'):                    historyPrev,
		domain.Special(domain.KeyUp):        historyPrev,
		domain.Char('j'):                    historyNext,
		domain.Special(domain.KeyDown):      historyNext,
		domain.Special(domain.KeyEnter):     submit,
		domain.Ctrl('j'):                    submit,
		domain.Special(domain.KeyTab):       complete,
		domain.Ctrl('c'):                    cancel,
		domain.Ctrl('d'):                    exitOnEmpty,
		domain.Ctrl('l'):                    clearScreen,
		domain.Special(domain.KeyEscape):    func(*Editor) Outcome { return OutcomeBell },
	}
}

// operate completes a pending vi operator with the motion in key.
// Sequences that are not understood are discarded.
func (e *Editor) operate(key domain.Key) Outcome {
	op := e.pending
	e.pending = 0

	if op == 'r' {
		if !key.Printable() || e.pos >= len(e.buf) {
			return OutcomeBell
		}
		e.buf[e.pos] = key.Rune
		return OutcomeRedraw
	}

	var start, end int
	switch {
	case key == domain.Char(op):
		start, end = 0, len(e.buf)
	case key == domain.Char('w'):
		start = e.pos
		if op == 'c' {
			// cw behaves like ce.
			end = wordForward(e.buf, e.pos, notBlank)
		} else {
			end = nextWordStart(e.buf, e.pos)
		}
	case key == domain.Char('e'):
		start, end = e.pos, wordEnd(e.buf, e.pos)+1
	case key == domain.Char('b'):
		start, end = wordBack(e.buf, e.pos, notBlank), e.pos
	case key == domain.Char('$'):
		start, end = e.pos, len(e.buf)
	case key == domain.Char('0'):
		start, end = 0, e.pos
	case key == domain.Char('h'):
		start, end = e.pos-1, e.pos
	case key == domain.Char('l'):
		start, end = e.pos, e.pos+1
	default:
		return OutcomeBell
	}
	if start < 0 {
		start = 0
	}
	if end > len(e.buf) {
		end = len(e.buf)
	}

	switch op {
	case 'y':
		if start < end {
			e.kill.push(string(e.buf[start:end]))
		}
		e.pos = start
		e.clamp()
	case 'd':
		e.killRange(start, end)
	case 'c':
		e.kill.push(e.cut(start, end))
		e.mode = domain.ModeViInsert
		e.clamp()
	}
	return OutcomeRedraw
}
