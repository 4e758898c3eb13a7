package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cerebrum/bofh-go/assets"
	appconfig "github.com/cerebrum/bofh-go/internal/application/config"
	"github.com/cerebrum/bofh-go/internal/domain"
	"github.com/cerebrum/bofh-go/internal/pkg/filesystem"
	"github.com/cerebrum/bofh-go/internal/ports"
)

// Environment variables consulted by the loader.
const (
	EnvConfig   = "BOFH_CONFIG"
	EnvURL      = "BOFH_URL"
	EnvUser     = "BOFH_USER"
	EnvCert     = "BOFH_CERT"
	EnvInsecure = "BOFH_INSECURE"
)

// FileLoader loads YAML configuration from ~/.bofh/config.yaml (overridable via BOFH_CONFIG).
type FileLoader struct {
	overridePath string
	getenv       func(string) string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path, getenv: os.Getenv}
}

// Load implements ports.ConfigProvider. A missing file is created from the
// embedded defaults. Environment overrides are applied on top.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, err
		}
		if err := writeDefault(path); err != nil {
			return domain.Config{}, err
		}
		data = assets.DefaultConfigYAML
	}

	cfg, err := defaultConfig()
	if err != nil {
		return domain.Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := l.applyEnv(&cfg); err != nil {
		return domain.Config{}, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		return domain.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the file the loader reads.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := l.getenv(EnvConfig); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".bofh", "config.yaml")
}

func (l *FileLoader) applyEnv(cfg *domain.Config) error {
	if v := l.getenv(EnvURL); v != "" {
		cfg.Connection.URL = v
	}
	if v := l.getenv(EnvUser); v != "" {
		cfg.Connection.User = v
	}
	if v := l.getenv(EnvCert); v != "" {
		cfg.Connection.CertFile = expandPath(v)
	}
	if v := l.getenv(EnvInsecure); v != "" {
		insecure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvInsecure, err)
		}
		cfg.Connection.Insecure = insecure
	}
	return nil
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return err
	}
	return os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions)
}

// defaultConfig decodes the embedded defaults so that keys missing from a
// user file keep their default values.
func defaultConfig() (domain.Config, error) {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("embedded defaults: %w", err)
	}
	return cfg, nil
}

// Defaults returns the embedded default configuration.
func Defaults() domain.Config {
	cfg, err := defaultConfig()
	if err != nil {
		panic(err)
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
