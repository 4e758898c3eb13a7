// Package terminal adapts a character terminal to the shell's Terminal
// port: raw-mode key input decoded by bubbletea, single-row line rendering and output that
// keeps working while the terminal is in raw mode.
package terminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/cerebrum/bofh-go/internal/domain"
	"github.com/cerebrum/bofh-go/internal/ports"
)

const defaultWidth = 80

// Options tunes the interactive terminal.
type Options struct {
	Color bool
}

// Terminal reads keys from in and draws on out. Call MakeRaw before use
// on a real terminal and Restore when done.
type Terminal struct {
	in       io.Reader
	out      io.Writer
	renderer *lineRenderer

	program   *tea.Program
	readOnce  sync.Once
	closeOnce sync.Once
	keys      chan domain.Key
	done      chan struct{}
	errMu     sync.Mutex
	readErr   error

	state  *term.State
	active bool
	last   ports.View
}

// New builds a terminal over the given streams.
func New(in io.Reader, out io.Writer, opts Options) *Terminal {
	t := &Terminal{
		in:       in,
		out:      out,
		renderer: newLineRenderer(out, opts.Color),
		keys:     make(chan domain.Key, 64),
		done:     make(chan struct{}),
	}
	// Raw mode stays with MakeRaw, so bubbletea gets a plain reader and
	// no renderer.
	t.program = tea.NewProgram(keyModel{keys: t.keys, done: t.done},
		tea.WithInput(&watchedReader{r: in, failed: t.inputFailed}),
		tea.WithOutput(out),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	return t
}

// IsInteractive reports whether both streams are terminals.
func IsInteractive(in, out *os.File) bool {
	return term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd()))
}

// MakeRaw puts the input terminal into raw mode.
func (t *Terminal) MakeRaw() error {
	f, ok := t.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	state, err := term.MakeRaw(int(f.Fd()))
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	t.state = state
	return nil
}

// Restore undoes MakeRaw. It is safe to call more than once.
func (t *Terminal) Restore() error {
	if t.state == nil {
		return nil
	}
	f := t.in.(*os.File)
	err := term.Restore(int(f.Fd()), t.state)
	t.state = nil
	return err
}

// Writer returns a writer that is safe to use for out-of-band output such
// as logs while the terminal is raw.
func (t *Terminal) Writer() io.Writer {
	return NewCRLFWriter(t.out)
}

// ReadKey implements ports.Terminal.
func (t *Terminal) ReadKey(ctx context.Context) (domain.Key, error) {
	t.readOnce.Do(func() { go t.readLoop() })
	select {
	case key, ok := <-t.keys:
		if !ok {
			return domain.Key{}, t.readError()
		}
		return key, nil
	case <-ctx.Done():
		return domain.Key{}, ctx.Err()
	}
}

// Close stops the key reader.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.program.Kill()
	})
	return nil
}

// readLoop runs the bubbletea event loop that decodes input. Keys decoded
// after a ReadKey gave up stay queued for the next call.
func (t *Terminal) readLoop() {
	defer close(t.keys)
	_, err := t.program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		t.setReadError(fmt.Errorf("read terminal: %w", err))
	}
	t.setReadError(io.EOF)
}

// inputClosed tells the event loop that the input stream ended.
type inputClosed struct{}

// keyModel forwards key events to the terminal. It draws nothing.
type keyModel struct {
	keys chan<- domain.Key
	done <-chan struct{}
}

func (m keyModel) Init() tea.Cmd { return nil }

func (m keyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		for _, key := range translateKey(msg) {
			select {
			case m.keys <- key:
			case <-m.done:
				return m, tea.Quit
			}
		}
	case inputClosed:
		return m, tea.Quit
	}
	return m, nil
}

func (m keyModel) View() string { return "" }

// watchedReader reports the first read error to the terminal.
type watchedReader struct {
	r      io.Reader
	failed func(error)
}

func (w *watchedReader) Read(p []byte) (int, error) {
	n, err := w.r.Read(p)
	if err != nil {
		w.failed(err)
	}
	return n, err
}

func (t *Terminal) inputFailed(err error) {
	if err != io.EOF {
		err = fmt.Errorf("read terminal: %w", err)
	}
	if t.setReadError(err) {
		go t.program.Send(inputClosed{})
	}
}

// setReadError records err unless an error is already recorded. It
// reports whether err was recorded.
func (t *Terminal) setReadError(err error) bool {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	if t.readErr != nil {
		return false
	}
	t.readErr = err
	return true
}

func (t *Terminal) readError() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	return t.readErr
}

// Render implements ports.Terminal.
func (t *Terminal) Render(view ports.View) error {
	t.last = view
	t.active = true
	_, err := t.out.Write(t.renderer.frame(view, t.width()))
	return err
}

// endLine redraws the current input without its hint and moves below it.
func (t *Terminal) endLine() error {
	if !t.active {
		return nil
	}
	t.active = false
	view := t.last
	view.Hint = nil
	view.Cursor = len([]rune(view.Line))
	frame := t.renderer.frame(view, t.width())
	_, err := t.out.Write(append(frame, '\r', '\n'))
	return err
}

// ShowCandidates implements ports.Terminal.
func (t *Terminal) ShowCandidates(candidates []string) error {
	if err := t.endLine(); err != nil {
		return err
	}
	_, err := t.out.Write([]byte(columns(candidates, t.width())))
	return err
}

// Println implements ports.Terminal. An empty text only ends the input
// line.
func (t *Terminal) Println(text string) error {
	if err := t.endLine(); err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	_, err := io.WriteString(t.out, crlf(text)+"\r\n")
	return err
}

// ClearScreen implements ports.Terminal.
func (t *Terminal) ClearScreen() error {
	var buf bytes.Buffer
	termenv.NewOutput(&buf).ClearScreen()
	t.active = false
	_, err := t.out.Write(buf.Bytes())
	return err
}

func (t *Terminal) width() int {
	if f, ok := t.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return defaultWidth
}

// columns lays candidates out in rows across the terminal width.
func columns(candidates []string, width int) string {
	if len(candidates) == 0 {
		return ""
	}
	cell := 0
	for _, c := range candidates {
		if w := runewidth.StringWidth(c); w > cell {
			cell = w
		}
	}
	cell += 2
	perRow := width / cell
	if perRow < 1 {
		perRow = 1
	}
	rows := (len(candidates) + perRow - 1) / perRow
	var b strings.Builder
	for row := 0; row < rows; row++ {
		var line strings.Builder
		for col := 0; col < perRow; col++ {
			i := col*rows + row
			if i >= len(candidates) {
				break
			}
			line.WriteString(runewidth.FillRight(candidates[i], cell))
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\r\n")
	}
	return b.String()
}

func crlf(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}

// CRLFWriter translates bare line feeds so output lines up in raw mode.
type CRLFWriter struct {
	w io.Writer
}

// NewCRLFWriter wraps w.
func NewCRLFWriter(w io.Writer) *CRLFWriter {
	return &CRLFWriter{w: w}
}

func (c *CRLFWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(c.w, crlf(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

var _ ports.Terminal = (*Terminal)(nil)
