package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/localrivet/configurator"

	"github.com/localrivet/redminemcp/internal/errortypes"
)

// RedmineConfig holds the connection settings for the remote Redmine.
type RedmineConfig struct {
	// URL is the base URL of the Redmine instance, e.g. https://redmine.example.com.
	URL string `json:"url" env:"URL"`

	// APIKey is the REST API key sent as X-Redmine-API-Key.
	APIKey string `json:"api_key" env:"API_KEY"`

	// Username and Password are used for basic auth when no API key is set.
	Username string `json:"username" env:"USERNAME"`
	Password string `json:"password" env:"PASSWORD"`

	TimeoutSeconds       int    `json:"timeout_seconds" env:"TIMEOUT_SECONDS" validate:"min:1"`
	UploadTimeoutSeconds int    `json:"upload_timeout_seconds" env:"UPLOAD_TIMEOUT_SECONDS" validate:"min:1"`
	InsecureSkipVerify   bool   `json:"insecure_skip_verify" env:"INSECURE_SKIP_VERIFY"`
	UserAgent            string `json:"user_agent" env:"USER_AGENT"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level to display ("debug", "info", "warn", "error").
	Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

	// Format is the log format to use ("text", "json").
	Format string `json:"format" env:"LOG_FORMAT"`
}

// Config represents the redmine-mcp configuration
type Config struct {
	Redmine RedmineConfig `json:"redmine"`
	Logging LoggingConfig `json:"logging"`

	// Internal state (not saved to config file)
	configPath     string       `json:"-"`
	mutex          sync.RWMutex `json:"-"`
	lastModifiedAt time.Time    `json:"-"`
}

// Default configuration values
const (
	DefaultConfigFilename       = ".redminemcpconfig"
	DefaultEnvPrefix            = "REDMINE"
	DefaultTimeoutSeconds       = 30
	DefaultUploadTimeoutSeconds = 60
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
)

// NewConfig creates a new Config instance with default values
func NewConfig() *Config {
	config := &Config{}
	config.Redmine.TimeoutSeconds = DefaultTimeoutSeconds
	config.Redmine.UploadTimeoutSeconds = DefaultUploadTimeoutSeconds
	config.Logging.Level = DefaultLogLevel
	config.Logging.Format = DefaultLogFormat
	return config
}

// LoadConfig loads the configuration from the default path
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath(DefaultConfigFilename)
}

// LoadConfigWithPath loads defaults, then the file at configPath if it
// exists, then REDMINE_* environment variables. Loader output goes to
// stderr since stdout is reserved for the MCP transport.
func LoadConfigWithPath(configPath string) (*Config, error) {
	return load(configPath, os.Stderr)
}

func load(configPath string, logOut io.Writer) (*Config, error) {
	stdLogger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg := NewConfig()

	if configPath == "" {
		configPath = DefaultConfigFilename
	}
	if configPath == DefaultConfigFilename {
		foundPath, err := configurator.FindConfigFile(configPath)
		if err == nil {
			configPath = foundPath
			stdLogger.Debug("Found config file at " + foundPath)
		}
	}

	loader := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider())

	if _, err := os.Stat(configPath); err == nil {
		loader = loader.WithProvider(configurator.NewFileProvider(configPath))
	} else {
		stdLogger.Debug("Config file not found, using defaults and environment", "path", configPath)
	}

	loader = loader.
		WithProvider(configurator.NewEnvProvider(DefaultEnvPrefix)).
		WithValidator(configurator.NewDefaultValidator())

	if err := loader.Load(context.Background(), cfg); err != nil {
		return nil, errortypes.ConfigError(err, "failed to load configuration").
			WithField("path", configPath)
	}

	cfg.configPath = configPath
	cfg.lastModifiedAt = time.Now()
	return cfg, nil
}

// Validate checks the settings the transport needs before any call is made.
func (c *Config) Validate() error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if strings.TrimSpace(c.Redmine.URL) == "" {
		return errortypes.ConfigError(nil, "redmine.url is required (set REDMINE_URL)")
	}
	u, err := url.Parse(c.Redmine.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errortypes.ConfigError(err, fmt.Sprintf("redmine.url %q must be an absolute http(s) URL", c.Redmine.URL))
	}
	if c.Redmine.APIKey == "" {
		if c.Redmine.Username == "" {
			return errortypes.ConfigError(nil, "a credential is required: set REDMINE_API_KEY or REDMINE_USERNAME and REDMINE_PASSWORD")
		}
		if c.Redmine.Password == "" {
			return errortypes.ConfigError(nil, "redmine.password is required when using basic auth")
		}
	}
	if c.Redmine.TimeoutSeconds < 1 || c.Redmine.UploadTimeoutSeconds < 1 {
		return errortypes.ConfigError(nil, "timeouts must be at least one second")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errortypes.ConfigError(nil, fmt.Sprintf("unknown log level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return errortypes.ConfigError(nil, fmt.Sprintf("unknown log format %q", c.Logging.Format))
	}
	return nil
}

// Timeout returns the per-call timeout for JSON requests.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Redmine.TimeoutSeconds) * time.Second
}

// UploadTimeout returns the per-call timeout for binary requests.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.Redmine.UploadTimeoutSeconds) * time.Second
}

// Template returns a copy of c with credentials blanked, suitable for
// writing to disk.
func (c *Config) Template() *Config {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	t := &Config{Redmine: c.Redmine, Logging: c.Logging}
	t.Redmine.APIKey = ""
	t.Redmine.Password = ""
	return t
}

// SaveToFile writes a credential-free copy of the configuration to path.
func (c *Config) SaveToFile(path string) error {
	template := c.Template()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := configurator.SaveToFile(template, path, configurator.FormatJSON); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	c.configPath = path
	c.lastModifiedAt = time.Now()
	return nil
}

// Save saves the configuration to the last used file path
func (c *Config) Save() error {
	if c.configPath == "" {
		c.configPath = DefaultConfigFilename
	}
	return c.SaveToFile(c.configPath)
}

// GetConfigPath returns the path of the currently loaded configuration file
func (c *Config) GetConfigPath() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.configPath
}
