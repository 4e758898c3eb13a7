package history

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cerebrum/bofh-go/internal/domain"
	"github.com/cerebrum/bofh-go/internal/pkg/filesystem"
	"github.com/cerebrum/bofh-go/internal/ports"
)

// FileStore appends submitted lines to a plain text file, one per line.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// DefaultFilePath is ~/.bofh/history.
func DefaultFilePath() string {
	return filepath.Join(filesystem.UserHomeDir(), ".bofh", "history")
}

// NewFileStore creates a store backed by path. The file is created on the
// first Append.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFilePath()
	}
	return &FileStore{path: path}
}

// Append implements ports.HistoryStore. Every call opens, writes, syncs
// and closes the file.
func (f *FileStore) Append(line string) error {
	if strings.ContainsAny(line, "\r\n") {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return err
	}
	if _, err := file.WriteString(line + "\n"); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LoadRecent returns up to limit of the newest lines, oldest first. A
// missing file is an empty history.
func (f *FileStore) LoadRecent(limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if limit > 0 && len(lines) > 2*limit {
			lines = append([]string(nil), lines[len(lines)-limit:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines, nil
}

// Close implements ports.HistoryStore. The file is never held open.
func (f *FileStore) Close() error {
	return nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

var _ ports.HistoryStore = (*FileStore)(nil)
