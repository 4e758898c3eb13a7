// Package shell runs the interactive session: it reads keys, drives the
// line editor, applies completion and forwards submitted lines to the
// server.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cerebrum/bofh-go/internal/application/catalog"
	"github.com/cerebrum/bofh-go/internal/application/completion"
	"github.com/cerebrum/bofh-go/internal/application/editor"
	"github.com/cerebrum/bofh-go/internal/domain"
	"github.com/cerebrum/bofh-go/internal/pkg/logger"
	"github.com/cerebrum/bofh-go/internal/ports"
)

// ErrInterrupted is returned for a remote call cancelled with Ctrl-C.
var ErrInterrupted = errors.New("interrupted")

// Options configures the shell.
type Options struct {
	Prompt         string
	CommandTimeout time.Duration
	CloseTimeout   time.Duration
	// Circular cycles through candidates on repeated Tab instead of
	// listing them.
	Circular bool
	// NoHints disables the live hint.
	NoHints bool
	// HistoryShow is the default count for the history builtin.
	HistoryShow int
}

// Deps are the collaborators of a shell. Store, Busy and Logger are
// optional.
type Deps struct {
	Transport ports.Transport
	Catalog   *catalog.Catalog
	Session   domain.Session
	Terminal  ports.Terminal
	Editor    *editor.Editor
	History   *editor.History
	Store     ports.HistoryStore
	Formatter ports.ResultFormatter
	Busy      ports.BusyIndicator
	Logger    ports.Logger
}

// Shell owns one interactive session.
type Shell struct {
	transport ports.Transport
	catalog   *catalog.Catalog
	session   domain.Session
	terminal  ports.Terminal
	editor    *editor.Editor
	history   *editor.History
	store     ports.HistoryStore
	formatter ports.ResultFormatter
	busy      ports.BusyIndicator
	logger    ports.Logger
	engine    *completion.Engine
	builtins  map[string]builtin
	opts      Options

	typeahead []domain.Key
	cycle     *cycle
	hint      *domain.Hint
	storeWarn sync.Once
	closeOnce sync.Once
}

// New assembles a shell.
func New(deps Deps, opts Options) *Shell {
	if opts.Prompt == "" {
		opts.Prompt = domain.DefaultPrompt
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = domain.DefaultCommandTimeout
	}
	if opts.CloseTimeout <= 0 {
		opts.CloseTimeout = domain.CloseTimeout
	}
	if opts.HistoryShow <= 0 {
		opts.HistoryShow = domain.DefaultHistoryShow
	}
	if deps.History == nil {
		deps.History = editor.NewHistory(0)
	}
	if deps.Editor == nil {
		deps.Editor = editor.New(deps.History, editor.Options{})
	}
	var log ports.Logger = logger.NewNop()
	if deps.Logger != nil {
		log = deps.Logger
	}
	s := &Shell{
		transport: deps.Transport,
		catalog:   deps.Catalog,
		session:   deps.Session,
		terminal:  deps.Terminal,
		editor:    deps.Editor,
		history:   deps.History,
		store:     deps.Store,
		formatter: deps.Formatter,
		busy:      deps.Busy,
		logger:    log,
		engine:    completion.NewEngine(),
		opts:      opts,
	}
	s.builtins = s.defaultBuiltins()
	return s
}

// Run reads and executes lines until the operator exits or ctx is
// cancelled. The session is closed before Run returns.
func (s *Shell) Run(ctx context.Context) error {
	defer s.Close(context.WithoutCancel(ctx))

	for {
		if err := s.render(); err != nil {
			return err
		}
		key, err := s.nextKey(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		s.hint = nil

		outcome := s.editor.Handle(key)
		if outcome != editor.OutcomeComplete {
			s.cycle = nil
		}
		switch outcome {
		case editor.OutcomeComplete:
			s.complete(ctx)
		case editor.OutcomeSubmit:
			if exit := s.submit(ctx); exit {
				return nil
			}
		case editor.OutcomeCancel:
			_ = s.terminal.Println("")
			s.editor.Reset()
		case editor.OutcomeClearScreen:
			_ = s.terminal.ClearScreen()
		case editor.OutcomeExit:
			_ = s.terminal.Println("")
			return nil
		}
	}
}

// Execute runs a single line without the editor and returns the error the
// line produced.
func (s *Shell) Execute(ctx context.Context, line string) error {
	words, err := completion.Split(line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return nil
	}
	_, err = s.dispatch(ctx, words)
	return err
}

// Close ends the remote session. Only the first call has an effect.
func (s *Shell) Close(ctx context.Context) {
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, s.opts.CloseTimeout)
		defer cancel()
		if err := s.transport.Close(ctx, s.session); err != nil {
			s.logger.Debug("closing session failed", map[string]interface{}{"error": err.Error()})
		}
	})
}

func (s *Shell) nextKey(ctx context.Context) (domain.Key, error) {
	if len(s.typeahead) > 0 {
		key := s.typeahead[0]
		s.typeahead = s.typeahead[1:]
		return key, nil
	}
	return s.terminal.ReadKey(ctx)
}

func (s *Shell) render() error {
	snap := s.catalog.Snapshot()
	line := s.editor.Line()
	status, end := s.engine.Classify(snap, line)
	hint := s.hint
	if hint == nil && !s.opts.NoHints {
		hint = s.engine.Hint(snap, line, s.editor.CursorByte())
	}
	return s.terminal.Render(ports.View{
		Prompt:     s.opts.Prompt,
		Line:       line,
		Cursor:     s.editor.Cursor(),
		Mode:       s.editor.Mode(),
		Hint:       hint,
		Status:     status,
		CommandEnd: end,
	})
}

// submit handles Enter. It reports whether the shell should exit.
func (s *Shell) submit(ctx context.Context) bool {
	line := s.editor.Line()
	words, err := completion.Split(line)
	if err != nil {
		// The buffer is kept so the operator can fix the line.
		s.report(err)
		return false
	}
	_ = s.terminal.Println("")
	s.editor.Reset()
	if len(words) == 0 {
		return false
	}
	s.record(line)

	exit, err := s.dispatch(ctx, words)
	if err != nil {
		s.report(err)
	}
	return exit
}

func (s *Shell) record(line string) {
	if !s.history.Append(line) || s.store == nil {
		return
	}
	if err := s.store.Append(line); err != nil {
		s.storeWarn.Do(func() {
			s.logger.Warn("history not saved", map[string]interface{}{"error": err.Error()})
		})
	}
}

func (s *Shell) dispatch(ctx context.Context, words []string) (bool, error) {
	if b, ok := s.builtins[words[0]]; ok {
		if _, remote := s.catalog.Lookup(words[0]); !remote {
			return b(ctx, words[1:])
		}
	}

	res, err := s.catalog.Snapshot().Resolve(words)
	if err != nil {
		return false, s.explain(err)
	}
	result, err := s.invoke(ctx, res)
	if err != nil {
		return false, err
	}
	return false, s.print(result)
}

// invoke runs the command, refreshing the catalog and retrying once if
// the server restarted underneath the session.
func (s *Shell) invoke(ctx context.Context, res catalog.Resolution) (domain.Result, error) {
	run := func(ctx context.Context) (domain.Result, error) {
		return s.transport.Invoke(ctx, s.session, res.Command.Name, res.Args)
	}
	result, err := s.call(ctx, run)
	if errors.Is(err, domain.ErrServerRestarted) {
		s.logger.Info("server restarted, reloading commands", nil)
		if rerr := s.catalog.Refresh(ctx, s.session); rerr != nil {
			return domain.Result{}, rerr
		}
		result, err = s.call(ctx, run)
	}
	return result, err
}

type reply struct {
	result domain.Result
	err    error
}

// call runs fn with the command timeout while watching the keyboard.
// Ctrl-C abandons the call; any other key is kept for the editor.
func (s *Shell) call(ctx context.Context, fn func(context.Context) (domain.Result, error)) (domain.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.CommandTimeout)
	defer cancel()

	done := make(chan reply, 1)
	go func() {
		result, err := fn(callCtx)
		done <- reply{result: result, err: err}
	}()

	if s.busy != nil {
		s.busy.Start()
		defer s.busy.Stop()
	}

	keyCtx, stopKeys := context.WithCancel(callCtx)
	keys := make(chan domain.Key)
	go func() {
		defer close(keys)
		for {
			key, err := s.terminal.ReadKey(keyCtx)
			if err != nil {
				return
			}
			keys <- key
		}
	}()
	defer func() {
		stopKeys()
		for key := range keys {
			s.typeahead = append(s.typeahead, key)
		}
	}()

	pending := keys
	for {
		select {
		case out := <-done:
			if errors.Is(out.err, context.DeadlineExceeded) && ctx.Err() == nil {
				return domain.Result{}, fmt.Errorf("no answer within %s: %w", s.opts.CommandTimeout, out.err)
			}
			return out.result, out.err
		case key, ok := <-pending:
			if !ok {
				pending = nil
				continue
			}
			if key == domain.Ctrl('c') {
				cancel()
				return domain.Result{}, ErrInterrupted
			}
			s.typeahead = append(s.typeahead, key)
		}
	}
}

func (s *Shell) print(result domain.Result) error {
	if s.formatter == nil {
		return nil
	}
	text, err := s.formatter.Format(result)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	return s.terminal.Println(strings.TrimRight(text, "\n"))
}

// report renders an in-session error. Errors never end the session.
func (s *Shell) report(err error) {
	s.logger.Debug("command failed", map[string]interface{}{"error": err.Error()})
	_ = s.terminal.Println(Describe(err))
}

// explain turns resolution failures into operator-facing errors.
func (s *Shell) explain(err error) error {
	var unknown *catalog.UnknownCommandError
	if errors.As(err, &unknown) {
		word := strings.Join(unknown.Words, " ")
		if hint := suggest(word, s.candidates(len(unknown.Words))); hint != "" {
			return fmt.Errorf("%w %q, did you mean %q?", domain.ErrUnknownCommand, word, hint)
		}
		return fmt.Errorf("%w %q", domain.ErrUnknownCommand, word)
	}
	var incomplete *catalog.IncompleteCommandError
	if errors.As(err, &incomplete) {
		return fmt.Errorf("%s expects a subcommand: %s", incomplete.Group, strings.Join(incomplete.Subcommands, ", "))
	}
	return err
}

// candidates lists the names an unknown word of the given length could
// have meant, commands first in catalog order so ties go to the earliest.
func (s *Shell) candidates(words int) []string {
	var names []string
	for _, spec := range s.catalog.Snapshot().Commands() {
		switch {
		case words < 2:
			names = append(names, spec.Name)
		case spec.Group != "":
			names = append(names, spec.Group+" "+spec.Subcommand)
		}
	}
	if words < 2 {
		names = append(names, s.catalog.Snapshot().Groups("")...)
		builtinNames := make([]string, 0, len(s.builtins))
		for name := range s.builtins {
			builtinNames = append(builtinNames, name)
		}
		slices.Sort(builtinNames)
		names = append(names, builtinNames...)
	}
	return names
}

// Describe renders an error the way the shell prints it.
func Describe(err error) string {
	var fault *domain.RemoteFault
	switch {
	case errors.As(err, &fault):
		if fault.Kind == domain.FaultSessionExpired {
			return "Error: session expired, please log in again"
		}
		return "Error: " + fault.Error()
	case errors.Is(err, ErrInterrupted):
		return "^C"
	}
	return "Error: " + err.Error()
}
