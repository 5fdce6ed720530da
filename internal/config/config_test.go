package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/redminemcp/internal/errortypes"
)

func validConfig() *Config {
	cfg := NewConfig()
	cfg.Redmine.URL = "https://redmine.example.com"
	cfg.Redmine.APIKey = "secret"
	return cfg
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, DefaultTimeoutSeconds, cfg.Redmine.TimeoutSeconds)
	assert.Equal(t, DefaultUploadTimeoutSeconds, cfg.Redmine.UploadTimeoutSeconds)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 60*time.Second, cfg.UploadTimeout())
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Logging.Format)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"api key", func(*Config) {}, true},
		{"basic auth", func(c *Config) {
			c.Redmine.APIKey = ""
			c.Redmine.Username = "admin"
			c.Redmine.Password = "pw"
		}, true},
		{"missing url", func(c *Config) { c.Redmine.URL = "" }, false},
		{"relative url", func(c *Config) { c.Redmine.URL = "redmine.example.com" }, false},
		{"ftp url", func(c *Config) { c.Redmine.URL = "ftp://redmine.example.com" }, false},
		{"no credential", func(c *Config) { c.Redmine.APIKey = "" }, false},
		{"username without password", func(c *Config) {
			c.Redmine.APIKey = ""
			c.Redmine.Username = "admin"
		}, false},
		{"zero timeout", func(c *Config) { c.Redmine.TimeoutSeconds = 0 }, false},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, false},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, false},
		{"json format", func(c *Config) { c.Logging.Format = "json" }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errortypes.Is(err, errortypes.KindConfig))
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")
	cfg, err := load(path, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeoutSeconds, cfg.Redmine.TimeoutSeconds)
	assert.Equal(t, path, cfg.GetConfigPath())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw, err := json.Marshal(map[string]interface{}{
		"redmine": map[string]interface{}{
			"url":             "https://tracker.example.org",
			"api_key":         "from-file",
			"timeout_seconds": 10,
		},
		"logging": map[string]interface{}{"level": "debug", "format": "json"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0600))

	cfg, err := load(path, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "https://tracker.example.org", cfg.Redmine.URL)
	assert.Equal(t, "from-file", cfg.Redmine.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestSaveToFileOmitsCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Redmine.Username = "admin"
	cfg.Redmine.Password = "hunter2"

	path := filepath.Join(t.TempDir(), "nested", "config.json")
	require.NoError(t, cfg.SaveToFile(path))
	assert.Equal(t, path, cfg.GetConfigPath())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "hunter2")
	assert.Contains(t, string(raw), "https://redmine.example.com")

	// The in-memory config keeps its credentials.
	assert.Equal(t, "secret", cfg.Redmine.APIKey)
}
