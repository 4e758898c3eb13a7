package domain

import (
	"fmt"
	"strings"
	"time"
)

// ConnectTimeout returns the configured connect timeout or the default.
func (c *Config) ConnectTimeout() time.Duration {
	return secondsOr(c.Timeouts.ConnectSeconds, DefaultConnectTimeout)
}

// CatalogTimeout returns the bound on the catalog fetch.
func (c *Config) CatalogTimeout() time.Duration {
	return secondsOr(c.Timeouts.CatalogSeconds, DefaultCatalogTimeout)
}

// LookupTimeout returns the bound on enumerated-value lookups.
func (c *Config) LookupTimeout() time.Duration {
	if c.Timeouts.LookupMillis <= 0 {
		return DefaultLookupTimeout
	}
	return time.Duration(c.Timeouts.LookupMillis) * time.Millisecond
}

// CommandTimeout returns the bound on a submitted command.
func (c *Config) CommandTimeout() time.Duration {
	return secondsOr(c.Timeouts.CommandSeconds, DefaultCommandTimeout)
}

// ValueCacheTTL returns how long looked-up values are cached. A negative
// setting disables the cache.
func (c *Config) ValueCacheTTL() time.Duration {
	if c.Timeouts.ValueCacheSeconds < 0 {
		return 0
	}
	return secondsOr(c.Timeouts.ValueCacheSeconds, DefaultValueCacheDuration)
}

// Mode parses the configured starting edit mode.
func (c *Config) Mode() (EditMode, error) {
	return ParseEditMode(c.REPL.EditMode)
}

// ToggleKey parses the configured mode toggle key.
func (c *Config) ToggleKey() (Key, error) {
	name := c.REPL.ToggleKey
	if name == "" {
		name = DefaultToggleKey
	}
	return ParseKey(name)
}

// CircularCompletion reports whether repeated completion cycles candidates.
func (c *Config) CircularCompletion() bool {
	return strings.EqualFold(c.REPL.Completion, CompletionCircular)
}

// HistoryLimit returns how many history entries are loaded at startup.
func (c *Config) HistoryLimit() int {
	if c.History.MaxEntries <= 0 {
		return DefaultHistoryLimit
	}
	return c.History.MaxEntries
}

// UseVi switches the configuration to the vi profile: vi bindings with
// circular completion.
func (c *Config) UseVi() {
	c.REPL.EditMode = "vi"
	c.REPL.Completion = CompletionCircular
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if c.Connection.URL == "" {
		return fmt.Errorf("connection.url must be set")
	}
	if _, err := c.Mode(); err != nil {
		return fmt.Errorf("repl.edit_mode: %w", err)
	}
	if _, err := c.ToggleKey(); err != nil {
		return fmt.Errorf("repl.toggle_key: %w", err)
	}
	switch strings.ToLower(c.REPL.Completion) {
	case "", CompletionList, CompletionCircular:
	default:
		return fmt.Errorf("repl.completion must be list|circular, got %s", c.REPL.Completion)
	}
	switch strings.ToLower(c.History.Backend) {
	case "", "file", "sqlite", "none":
	default:
		return fmt.Errorf("history.backend must be file|sqlite|none, got %s", c.History.Backend)
	}
	return nil
}

func secondsOr(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
