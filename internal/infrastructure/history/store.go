// Package history provides the persistent stores behind the shell's
// command history.
package history

import (
	"fmt"
	"strings"

	"github.com/cerebrum/bofh-go/internal/ports"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Open returns the store for backend. An empty backend means file.
func Open(backend, path string) (ports.HistoryStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewFileStore(path), nil
	case BackendSQLite:
		return OpenSQLiteStore(path)
	case BackendNone:
		return NopStore{}, nil
	}
	return nil, fmt.Errorf("unknown history backend %q", backend)
}

// NopStore keeps nothing.
type NopStore struct{}

func (NopStore) Append(string) error              { return nil }
func (NopStore) LoadRecent(int) ([]string, error) { return nil, nil }
func (NopStore) Close() error                     { return nil }
