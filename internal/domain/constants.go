package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	DefaultConnectTimeout = 30 * time.Second
	// DefaultCatalogTimeout bounds the startup get_commands call
	DefaultCatalogTimeout = 30 * time.Second
	// DefaultLookupTimeout bounds enumerated-value lookups made while typing
	DefaultLookupTimeout = 1500 * time.Millisecond
	DefaultCommandTimeout = 120 * time.Second
	// DefaultValueCacheDuration is how long looked-up values are reused
	DefaultValueCacheDuration = time.Minute
	// CloseTimeout bounds the logout call on exit
	CloseTimeout = 5 * time.Second
)

// History constants
const (
	// DefaultHistoryLimit is the number of entries loaded at startup
	DefaultHistoryLimit = 1000
	// DefaultHistoryShow is the number of entries printed by the history builtin
	DefaultHistoryShow = 20
)

// REPL constants
const (
	DefaultURL       = "https://cerebrum-uio-test.uio.no:8000/"
	DefaultPrompt    = "bofh> "
	DefaultToggleKey = "ctrl-]"
	DefaultKillRing  = 16
	ClientName       = "bofh-go"
	Farewell         = "So long, and thanks for all the fish!"
)

// Completion presentation styles
const (
	CompletionList     = "list"
	CompletionCircular = "circular"
)
