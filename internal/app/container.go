package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cerebrum/bofh-go/internal/application/catalog"
	"github.com/cerebrum/bofh-go/internal/application/doctor"
	"github.com/cerebrum/bofh-go/internal/application/editor"
	"github.com/cerebrum/bofh-go/internal/application/shell"
	"github.com/cerebrum/bofh-go/internal/domain"
	"github.com/cerebrum/bofh-go/internal/infrastructure/bofhd"
	"github.com/cerebrum/bofh-go/internal/infrastructure/config"
	"github.com/cerebrum/bofh-go/internal/infrastructure/history"
	"github.com/cerebrum/bofh-go/internal/pkg/logger"
	"github.com/cerebrum/bofh-go/internal/ports"
	"github.com/cerebrum/bofh-go/internal/version"
)

// Overrides are command line settings applied on top of the configuration
// file and environment. Zero values leave the configuration untouched.
type Overrides struct {
	ConfigPath  string
	URL         string
	User        string
	CertFile    string
	Insecure    bool
	Timeout     time.Duration
	Vi          bool
	Prompt      string
	HistoryFile string
}

// Options select the logging destination and level.
type Options struct {
	Overrides Overrides
	LogWriter io.Writer
	// Level takes precedence over logging.level when set.
	Level *slog.Level
	Color bool
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config       domain.Config
	ConfigLoader *config.FileLoader
	Logger       *logger.SlogLogger
	Transport    ports.Transport
	HistoryStore ports.HistoryStore
	Doctor       *doctor.Service
}

// BuildContainer loads configuration and constructs the adapters. Nothing
// touches the network yet.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.Overrides.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := applyOverrides(&cfg, opts.Overrides); err != nil {
		return nil, err
	}

	w := opts.LogWriter
	if w == nil {
		w = os.Stderr
	}
	level := logger.ParseLevel(cfg.Logging.Level, 0, false)
	if opts.Level != nil {
		level = *opts.Level
	}
	log := logger.New(w, level, opts.Color && cfg.REPL.Color)
	log.Debug("configuration loaded", map[string]interface{}{"path": cfgLoader.Path(), "url": cfg.Connection.URL})

	rt, err := bofhd.NewHTTPTransport(bofhd.TLSOptions{
		CAFile:   cfg.Connection.CertFile,
		Insecure: cfg.Connection.Insecure,
	}, cfg.ConnectTimeout())
	if err != nil {
		return nil, err
	}
	clientName := cfg.Connection.ClientName
	if clientName == "" {
		clientName = domain.ClientName
	}
	transport := bofhd.New(bofhd.Options{
		URL:           cfg.Connection.URL,
		ClientName:    clientName,
		ClientVersion: version.Version,
		HTTP:          rt,
		Logger:        log,
	})

	store, historyErr := history.Open(cfg.History.Backend, cfg.History.Path)
	if historyErr != nil {
		log.Warn("history disabled", map[string]interface{}{"error": historyErr.Error()})
		store = history.NopStore{}
	}

	return &Container{
		Config:       cfg,
		ConfigLoader: cfgLoader,
		Logger:       log,
		Transport:    transport,
		HistoryStore: store,
		Doctor: &doctor.Service{
			ConfigProvider: cfgLoader,
			HistoryStore:   store,
			Server:         transport,
			ProbeTimeout:   cfg.ConnectTimeout(),
			HistoryError:   historyErr,
		},
	}, nil
}

func applyOverrides(cfg *domain.Config, o Overrides) error {
	if o.URL != "" {
		cfg.Connection.URL = o.URL
	}
	if o.User != "" {
		cfg.Connection.User = o.User
	}
	if o.CertFile != "" {
		cfg.Connection.CertFile = o.CertFile
	}
	if o.Insecure {
		cfg.Connection.Insecure = true
	}
	if o.Timeout > 0 {
		seconds := int((o.Timeout + time.Second - 1) / time.Second)
		cfg.Timeouts.ConnectSeconds = seconds
		cfg.Timeouts.CommandSeconds = seconds
	}
	if o.Vi {
		cfg.UseVi()
	}
	if o.Prompt != "" {
		cfg.REPL.Prompt = o.Prompt
	}
	if o.HistoryFile != "" {
		cfg.History.Path = o.HistoryFile
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Connect authenticates within the connect timeout.
func (c *Container) Connect(ctx context.Context, password string) (domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Config.ConnectTimeout())
	defer cancel()
	return c.Transport.Connect(ctx, domain.Credentials{User: c.Config.Connection.User, Password: password})
}

// LoadCatalog performs the startup catalog fetch. Errors wrap
// domain.ErrCatalogFetchFailed.
func (c *Container) LoadCatalog(ctx context.Context, session domain.Session) (*catalog.Catalog, error) {
	return catalog.Load(ctx, c.Transport, session, catalog.Options{
		FetchTimeout:  c.Config.CatalogTimeout(),
		LookupTimeout: c.Config.LookupTimeout(),
		CacheTTL:      c.Config.ValueCacheTTL(),
		Logger:        c.Logger,
	})
}

// ShellDeps are the front-end pieces chosen by the caller.
type ShellDeps struct {
	Terminal  ports.Terminal
	Formatter ports.ResultFormatter
	Busy      ports.BusyIndicator
}

// NewShell builds the interactive shell for an established session and
// loads the persisted history into it.
func (c *Container) NewShell(session domain.Session, cat *catalog.Catalog, deps ShellDeps) (*shell.Shell, error) {
	mode, err := c.Config.Mode()
	if err != nil {
		return nil, err
	}
	toggle, err := c.Config.ToggleKey()
	if err != nil {
		return nil, err
	}

	log := editor.NewHistory(c.Config.HistoryLimit())
	recent, err := c.HistoryStore.LoadRecent(c.Config.HistoryLimit())
	if err != nil {
		c.Logger.Warn("could not load history", map[string]interface{}{"error": err.Error()})
	}
	log.Load(recent)

	ed := editor.New(log, editor.Options{Mode: mode, ToggleKey: toggle, KillRing: c.Config.REPL.KillRing})
	return shell.New(shell.Deps{
		Transport: c.Transport,
		Catalog:   cat,
		Session:   session,
		Terminal:  deps.Terminal,
		Editor:    ed,
		History:   log,
		Store:     c.HistoryStore,
		Formatter: deps.Formatter,
		Busy:      deps.Busy,
		Logger:    c.Logger,
	}, shell.Options{
		Prompt:         c.Config.REPL.Prompt,
		CommandTimeout: c.Config.CommandTimeout(),
		Circular:       c.Config.CircularCompletion(),
		NoHints:        !c.Config.REPL.Hints,
	}), nil
}

// Close releases the history store.
func (c *Container) Close() error {
	return c.HistoryStore.Close()
}
