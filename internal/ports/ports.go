// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The shell, catalog and completion engine depend only on
// these interfaces, never on the XML-RPC client, the terminal or a storage backend.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., Transport, HistoryStore)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"

	"github.com/cerebrum/bofh-go/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.bofh/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// Transport talks to the remote administration server. Every call after
// Connect takes the session explicitly; implementations keep no ambient
// session state.
type Transport interface {
	Connect(ctx context.Context, creds domain.Credentials) (domain.Session, error)
	ListCommands(ctx context.Context, session domain.Session) ([]domain.CommandSpec, error)
	ResolveEnumeratedValues(ctx context.Context, session domain.Session, query domain.ValueQuery) ([]string, error)
	Invoke(ctx context.Context, session domain.Session, command string, args []string) (domain.Result, error)
	Help(ctx context.Context, session domain.Session, topic ...string) (string, error)
	Close(ctx context.Context, session domain.Session) error
}

// ServerProbe checks that the server answers without logging in.
type ServerProbe interface {
	MOTD(ctx context.Context) (string, error)
}

// HistoryStore persists submitted lines between sessions. All operations
// are best-effort from the shell's point of view.
type HistoryStore interface {
	Append(line string) error
	LoadRecent(limit int) ([]string, error)
	Close() error
}

// View is everything the terminal needs to redraw the input line.
type View struct {
	Prompt string
	Line   string
	// Cursor is a rune offset into Line.
	Cursor int
	Mode   domain.EditMode
	Hint   *domain.Hint
	// Status classifies the command word for colouring.
	Status domain.CommandStatus
	// CommandEnd is the rune offset where the command word ends.
	CommandEnd int
}

// Terminal is the interactive front end: key input plus line rendering.
type Terminal interface {
	// ReadKey blocks until a key arrives or ctx is done. A key that arrives
	// after ctx is done is delivered by the next call.
	ReadKey(ctx context.Context) (domain.Key, error)
	Render(view View) error
	// ShowCandidates prints completion candidates below the current line.
	ShowCandidates(candidates []string) error
	// Println writes a full line of output, ending the current input line.
	Println(text string) error
	ClearScreen() error
}

// ResultFormatter turns a decoded remote result into printable text.
type ResultFormatter interface {
	Format(domain.Result) (string, error)
}

// BusyIndicator signals that a remote call is in flight.
type BusyIndicator interface {
	Start()
	Stop()
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
