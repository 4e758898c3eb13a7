package config

import (
	"fmt"
	"net/url"

	"github.com/cerebrum/bofh-go/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := validateConnection(cfg.Connection); err != nil {
		return err
	}
	if err := validateTimeouts(cfg.Timeouts); err != nil {
		return err
	}
	if err := validateHistory(cfg.History); err != nil {
		return err
	}
	if cfg.REPL.KillRing < 0 {
		return fmt.Errorf("repl.kill_ring must be >= 0")
	}
	return nil
}

func validateConnection(conn domain.ConnectionSettings) error {
	u, err := url.Parse(conn.URL)
	if err != nil {
		return fmt.Errorf("connection.url invalid: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("connection.url must be http or https, got %q", conn.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("connection.url has no host: %q", conn.URL)
	}
	return nil
}

func validateTimeouts(t domain.TimeoutSettings) error {
	for name, v := range map[string]int{
		"timeouts.connect":   t.ConnectSeconds,
		"timeouts.catalog":   t.CatalogSeconds,
		"timeouts.lookup_ms": t.LookupMillis,
		"timeouts.command":   t.CommandSeconds,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be >= 0", name)
		}
	}
	return nil
}

func validateHistory(history domain.HistorySettings) error {
	if history.MaxEntries < 0 {
		return fmt.Errorf("history.max_entries must be >= 0")
	}
	return nil
}
