package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"
	"time"

	"github.com/spf13/cobra"

	"github.com/cerebrum/bofh-go/internal/app"
	"github.com/cerebrum/bofh-go/internal/application/catalog"
	"github.com/cerebrum/bofh-go/internal/application/shell"
	"github.com/cerebrum/bofh-go/internal/domain"
	"github.com/cerebrum/bofh-go/internal/infrastructure/terminal"
	"github.com/cerebrum/bofh-go/internal/pkg/logger"
)

// Options holds the process streams.
type Options struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr io.Writer
}

type flags struct {
	url         string
	user        string
	cert        string
	insecure    bool
	timeout     int
	vi          bool
	prompt      string
	commands    []string
	verbose     int
	verbosity   string
	quiet       bool
	configPath  string
	historyFile string
}

func (f *flags) overrides() app.Overrides {
	return app.Overrides{
		ConfigPath:  f.configPath,
		URL:         f.url,
		User:        f.user,
		CertFile:    f.cert,
		Insecure:    f.insecure,
		Timeout:     time.Duration(f.timeout) * time.Second,
		Vi:          f.vi,
		Prompt:      f.prompt,
		HistoryFile: f.historyFile,
	}
}

// level is nil when no flag asked for a specific verbosity.
func (f *flags) level() *slog.Level {
	if f.verbosity == "" && f.verbose == 0 && !f.quiet {
		return nil
	}
	level := logger.ParseLevel(f.verbosity, f.verbose, f.quiet)
	return &level
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	f := &flags{}

	root := &cobra.Command{
		Use:   "bofh",
		Short: "bofh - interactive client for the Cerebrum bofhd server",
		Long:  "bofh connects to a bofhd server and offers a shell with completion and hints for its commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.url, "url", "", "connect to bofhd server at URL")
	pf.StringVarP(&f.user, "user", "u", "", "authenticate as USER")
	pf.StringVarP(&f.cert, "cert", "c", "", "use CA certificates from PEM")
	pf.BoolVar(&f.insecure, "insecure", false, "skip certificate validation")
	pf.IntVar(&f.timeout, "timeout", 0, "set connection timeout to N seconds")
	pf.CountVarP(&f.verbose, "verbose", "v", "increase verbosity of log messages")
	pf.StringVar(&f.verbosity, "verbosity", "", "set verbosity of log messages to N or a level name")
	pf.BoolVarP(&f.quiet, "quiet", "q", false, "silence all log messages")
	pf.StringVar(&f.configPath, "config", "", "configuration file (default ~/.bofh/config.yaml)")

	fl := root.Flags()
	fl.BoolVar(&f.vi, "vi", false, "use vi editing mode with circular completion")
	fl.BoolVar(&f.vi, "vim", false, "alias for --vi")
	_ = fl.MarkHidden("vim")
	fl.StringVarP(&f.prompt, "prompt", "p", "", "use a custom prompt")
	fl.StringArrayVar(&f.commands, "cmd", nil, "run command and exit (repeatable)")
	fl.StringVar(&f.historyFile, "history-file", "", "read and write history at PATH")

	root.AddCommand(newVersionCommand())
	root.AddCommand(newConfigCommand(f))
	root.AddCommand(newDoctorCommand(f, opts))
	return root
}

func run(ctx context.Context, f *flags, opts Options) error {
	interactive := len(f.commands) == 0
	if interactive && !terminal.IsInteractive(opts.Stdin, opts.Stdout) {
		return &ExitError{Code: ExitFailure, Err: errors.New("standard input is not a terminal; use --cmd to run commands")}
	}

	logWriter := opts.Stderr
	if interactive {
		logWriter = terminal.NewCRLFWriter(opts.Stderr)
	}
	container, err := app.BuildContainer(ctx, app.Options{
		Overrides: f.overrides(),
		LogWriter: logWriter,
		Level:     f.level(),
		Color:     interactive,
	})
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	defer container.Close()

	if container.Config.Connection.User == "" {
		container.Config.Connection.User = currentUser()
	}
	cfg := container.Config

	fmt.Fprintf(opts.Stdout, "Connecting to %s\n\n", cfg.Connection.URL)
	password, err := NewPrompter(opts.Stdin, opts.Stderr).Password(cfg.Connection.User)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	session, err := container.Connect(ctx, password)
	if err != nil {
		return startupError(err)
	}
	if session.MOTD != "" {
		fmt.Fprintf(opts.Stdout, "%s\n\n", session.MOTD)
	}

	cat, err := container.LoadCatalog(ctx, session)
	if err != nil {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), domain.CloseTimeout)
		defer cancel()
		_ = container.Transport.Close(closeCtx, session)
		return startupError(err)
	}

	if !interactive {
		return runCommands(ctx, container, session, cat, f.commands, opts)
	}
	return runInteractive(ctx, container, session, cat, opts)
}

func runCommands(ctx context.Context, container *app.Container, session domain.Session, cat *catalog.Catalog, lines []string, opts Options) error {
	sh, err := container.NewShell(session, cat, app.ShellDeps{
		Terminal:  terminal.NewPlain(opts.Stdout),
		Formatter: YAMLFormatter{},
	})
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	defer sh.Close(context.WithoutCancel(ctx))

	failed := 0
	for _, line := range lines {
		if err := sh.Execute(ctx, line); err != nil {
			fmt.Fprintln(opts.Stderr, shell.Describe(err))
			failed++
		}
	}
	if failed > 0 {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%d of %d commands failed", failed, len(lines)), Silent: true}
	}
	return nil
}

func runInteractive(ctx context.Context, container *app.Container, session domain.Session, cat *catalog.Catalog, opts Options) error {
	term := terminal.New(opts.Stdin, opts.Stdout, terminal.Options{Color: container.Config.REPL.Color && os.Getenv("NO_COLOR") == ""})
	defer term.Close()
	sh, err := container.NewShell(session, cat, app.ShellDeps{
		Terminal:  term,
		Formatter: YAMLFormatter{},
		Busy:      NewSpinner(term.Writer()),
	})
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	if err := term.MakeRaw(); err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	defer term.Restore()

	err = sh.Run(ctx)
	term.Restore()
	fmt.Fprintln(opts.Stdout, domain.Farewell)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	return nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
