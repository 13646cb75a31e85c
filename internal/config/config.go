// Package config loads issuerun's TOML configuration.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/newhook/issuerun/internal/api"
	"github.com/newhook/issuerun/internal/kvstore"
)

//go:embed templates/config.tmpl
var configTemplateText string

const (
	// AppName names the config and state directories.
	AppName = "issuerun"
	// ConfigFile is the name of the config file inside the config directory.
	ConfigFile = "config.toml"
	// DefaultRedisURL is used by the redis backend when no URL is configured.
	DefaultRedisURL = "redis://127.0.0.1:6379/0"
)

// Config represents the configuration stored in config.toml.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	UI      UIConfig      `toml:"ui"`
}

// ServerConfig contains the backend address.
type ServerConfig struct {
	// BaseURL is the backend root, e.g. "http://127.0.0.1:8000".
	// The ISSUERUN_API_BASE environment variable takes precedence.
	BaseURL string `toml:"base_url" validate:"omitempty,url"`
}

// GetBaseURL returns the backend address: the environment override, then
// the configured value, then api.DefaultBaseURL.
func (s *ServerConfig) GetBaseURL() string {
	if env := strings.TrimSpace(os.Getenv(api.BaseURLEnv)); env != "" {
		return env
	}
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return api.DefaultBaseURL
}

// StorageConfig selects where run results and the current repo are kept.
type StorageConfig struct {
	// Backend is "sqlite" (default), "redis" or "memory".
	Backend string `toml:"backend" validate:"omitempty,oneof=sqlite redis memory"`

	// Path is the state directory holding state.db and debug.log.
	// Defaults to $XDG_STATE_HOME/issuerun.
	Path string `toml:"path"`

	// RedisURL is used when Backend is "redis".
	RedisURL string `toml:"redis_url" validate:"omitempty,url"`

	// RedisPrefix namespaces keys in redis. Defaults to "issuerun:".
	RedisPrefix string `toml:"redis_prefix"`
}

// GetBackend returns the configured backend or "sqlite".
func (s *StorageConfig) GetBackend() string {
	if s.Backend == "" {
		return kvstore.BackendSQLite
	}
	return s.Backend
}

// GetPath returns the state directory.
func (s *StorageConfig) GetPath() string {
	if s.Path != "" {
		return expandHome(s.Path)
	}
	return DefaultStateDir()
}

// GetRedisURL returns the configured redis URL or DefaultRedisURL.
func (s *StorageConfig) GetRedisURL() string {
	if s.RedisURL == "" {
		return DefaultRedisURL
	}
	return s.RedisURL
}

// GetRedisPrefix returns the configured key prefix or kvstore.DefaultRedisPrefix.
func (s *StorageConfig) GetRedisPrefix() string {
	if s.RedisPrefix == "" {
		return kvstore.DefaultRedisPrefix
	}
	return s.RedisPrefix
}

// StoreOptions converts the storage section for kvstore.Open.
func (s *StorageConfig) StoreOptions() kvstore.Options {
	return kvstore.Options{
		Backend:     s.GetBackend(),
		StateDir:    s.GetPath(),
		RedisURL:    s.GetRedisURL(),
		RedisPrefix: s.GetRedisPrefix(),
	}
}

// UIConfig contains terminal presentation settings.
type UIConfig struct {
	// NoSpinner disables the progress spinner while a run is in flight.
	NoSpinner bool `toml:"no_spinner"`
}

// ShowSpinner returns true unless the spinner is disabled.
func (u *UIConfig) ShowSpinner() bool {
	return !u.NoSpinner
}

// DefaultPath returns $XDG_CONFIG_HOME/issuerun/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, AppName, ConfigFile), nil
}

// DefaultStateDir returns $XDG_STATE_HOME/issuerun, falling back to
// ~/.local/state/issuerun.
func DefaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, ".local", "state", AppName)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// LoadConfig reads, parses and validates a config.toml file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Load reads the config at path, or the default location when path is
// empty. A missing file at the default location yields the defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return &Config{}, nil
		}
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// FieldError reports the first config value that failed validation.
type FieldError struct {
	Field string
	Tag   string
	Value any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v failed on '%s' validation", e.Field, e.Value, e.Tag)
}

// Validate checks the config's struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fe := validationErrors[0]
			return &FieldError{Field: fe.Namespace(), Tag: fe.Tag(), Value: fe.Value()}
		}
		return err
	}
	return nil
}

// SaveDocumentedConfig writes a fully documented config to path, creating
// the parent directory.
func (c *Config) SaveDocumentedConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(c.GenerateDocumentedConfig()), 0600)
}

// configTemplateData holds the data used to render the config template.
type configTemplateData struct {
	BaseURL     string
	Backend     string
	StatePath   string
	RedisURL    string
	RedisPrefix string
	NoSpinner   bool
}

// tomlString formats a string for TOML output with proper escaping.
func tomlString(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}

var configTemplate = template.Must(template.New("config").Funcs(template.FuncMap{
	"tomlString": tomlString,
}).Parse(configTemplateText))

// GenerateDocumentedConfig renders the config with comments for every option.
// Unset values are written as commented-out defaults.
func (c *Config) GenerateDocumentedConfig() string {
	data := configTemplateData{
		BaseURL:     c.Server.BaseURL,
		Backend:     c.Storage.Backend,
		StatePath:   c.Storage.Path,
		RedisURL:    c.Storage.RedisURL,
		RedisPrefix: c.Storage.RedisPrefix,
		NoSpinner:   c.UI.NoSpinner,
	}

	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, data); err != nil {
		return fmt.Sprintf("[server]\nbase_url = %s\n", tomlString(c.Server.BaseURL))
	}
	return buf.String()
}
