package domain

// Config mirrors ~/.bofh/config.yaml.
type Config struct {
	ConfigFormatVersion string             `yaml:"config_format_version"`
	Connection          ConnectionSettings `yaml:"connection"`
	REPL                REPLSettings       `yaml:"repl"`
	History             HistorySettings    `yaml:"history"`
	Timeouts            TimeoutSettings    `yaml:"timeouts"`
	Logging             LoggingSettings    `yaml:"logging"`
}

// ConnectionSettings describes where the bofhd server lives.
type ConnectionSettings struct {
	URL      string `yaml:"url"`
	User     string `yaml:"user"`
	CertFile string `yaml:"cert_file"`
	Insecure bool   `yaml:"insecure"`
	// ClientName is reported to the server when fetching the MOTD.
	ClientName string `yaml:"client_name"`
}

// REPLSettings tunes the interactive shell.
type REPLSettings struct {
	Prompt    string `yaml:"prompt"`
	EditMode  string `yaml:"edit_mode"`
	ToggleKey string `yaml:"toggle_key"`
	// Completion is "list" or "circular".
	Completion string `yaml:"completion"`
	Hints      bool   `yaml:"hints"`
	Color      bool   `yaml:"color"`
	KillRing   int    `yaml:"kill_ring"`
}

// HistorySettings configures the persistent history store.
type HistorySettings struct {
	// Backend is "file", "sqlite" or "none".
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
}

// TimeoutSettings bound every remote call made from the shell.
type TimeoutSettings struct {
	ConnectSeconds int `yaml:"connect"`
	CatalogSeconds int `yaml:"catalog"`
	LookupMillis   int `yaml:"lookup_ms"`
	CommandSeconds int `yaml:"command"`
	// ValueCacheSeconds is how long enumerated values stay cached.
	ValueCacheSeconds int `yaml:"value_cache"`
}

// LoggingSettings controls diagnostic output.
type LoggingSettings struct {
	Level string `yaml:"level"`
}
