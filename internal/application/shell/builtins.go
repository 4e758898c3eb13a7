package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cerebrum/bofh-go/internal/domain"
)

// builtin is a command handled locally. It reports whether the shell
// should exit.
type builtin func(ctx context.Context, args []string) (bool, error)

func (s *Shell) defaultBuiltins() map[string]builtin {
	quit := func(context.Context, []string) (bool, error) { return true, nil }
	return map[string]builtin{
		"help":    s.help,
		"quit":    quit,
		"exit":    quit,
		"refresh": s.refresh,
		"mode":    s.mode,
		"history": s.showHistory,
	}
}

// help asks the server for help text. A full command name is expanded to
// its group and subcommand. When the server has no help for a known
// command its usage line is shown instead.
func (s *Shell) help(ctx context.Context, args []string) (bool, error) {
	topic := args
	var (
		spec  domain.CommandSpec
		known bool
	)
	if len(args) == 1 {
		spec, known = s.catalog.Lookup(args[0])
		if known && spec.Group != "" {
			topic = []string{spec.Group, spec.Subcommand}
		}
	}
	result, err := s.call(ctx, func(ctx context.Context) (domain.Result, error) {
		text, err := s.transport.Help(ctx, s.session, topic...)
		return domain.Result{Command: "help", Value: text}, err
	})
	var fault *domain.RemoteFault
	if err != nil && known && errors.As(err, &fault) {
		s.logger.Debug("no server help, showing usage", map[string]interface{}{"command": spec.Name, "error": err.Error()})
		return false, s.terminal.Println("Usage: " + spec.UsageLine())
	}
	if err != nil {
		return false, err
	}
	return false, s.print(result)
}

func (s *Shell) refresh(ctx context.Context, _ []string) (bool, error) {
	if err := s.catalog.Refresh(ctx, s.session); err != nil {
		return false, err
	}
	return false, s.terminal.Println(fmt.Sprintf("Loaded %d commands", s.catalog.Snapshot().Len()))
}

func (s *Shell) mode(_ context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		name := "emacs"
		if s.editor.Mode().Vi() {
			name = "vi"
		}
		return false, s.terminal.Println("Edit mode: " + name)
	}
	mode, err := domain.ParseEditMode(args[0])
	if err != nil {
		return false, err
	}
	s.editor.SetMode(mode)
	return false, nil
}

func (s *Shell) showHistory(_ context.Context, args []string) (bool, error) {
	n := s.opts.HistoryShow
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return false, fmt.Errorf("history: %q is not a count", args[0])
		}
		n = v
	}
	entries := s.history.Recent(n)
	first := s.history.Len() - len(entries) + 1
	var b strings.Builder
	for i, line := range entries {
		fmt.Fprintf(&b, "%5d  %s\n", first+i, line)
	}
	if b.Len() == 0 {
		return false, nil
	}
	return false, s.terminal.Println(strings.TrimRight(b.String(), "\n"))
}
