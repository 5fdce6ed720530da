package redminemcp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/localrivet/redminemcp/internal/telemetry"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRedmine(t *testing.T, handler http.HandlerFunc) *Config {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.Redmine.URL = srv.URL
	cfg.Redmine.APIKey = "test-key"
	return cfg
}

func TestNewServerRequiresCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Redmine.URL = "https://redmine.example.com"

	_, err := NewServer(ServerOptions{Config: cfg, Logger: quietLogger()})
	require.Error(t, err)
	assert.True(t, errortypes.Is(err, errortypes.KindConfig))
}

func TestServerDispatchesAgainstRedmine(t *testing.T) {
	cfg := newRedmine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Redmine-API-Key"))
		switch r.URL.Path {
		case "/projects/1.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"project":{"id":1,"name":"Demo"}}`))
		case "/users/current.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user":{"id":5,"login":"bot"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	metrics := telemetry.NewMetricsCollector()
	srv, err := NewServer(ServerOptions{Config: cfg, Logger: quietLogger(), Metrics: metrics})
	require.NoError(t, err)
	assert.Same(t, cfg, srv.GetConfig())
	assert.Same(t, metrics, srv.Metrics())

	env := srv.Dispatch(context.Background(), "get_project", map[string]interface{}{"project_id": float64(1)})
	require.True(t, env.Success, "unexpected error: %+v", env.Error)
	assert.Equal(t, map[string]interface{}{"id": float64(1), "name": "Demo"}, env.Payload)

	env, err = srv.Ping(context.Background())
	require.NoError(t, err)
	assert.True(t, env.Success)

	env = srv.Dispatch(context.Background(), "get_version", map[string]interface{}{"version_id": float64(3)})
	require.False(t, env.Success)
	assert.Equal(t, errortypes.KindNotFound, env.Error.Kind)

	assert.EqualValues(t, 3, metrics.GetCounter(telemetry.MetricDispatchTotal))
	assert.EqualValues(t, 3, metrics.GetCounter(telemetry.MetricHTTPRequests))
	require.NoError(t, srv.Stop())
}

func TestPingReportsAuthFailure(t *testing.T) {
	cfg := newRedmine(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	srv, err := NewServer(ServerOptions{Config: cfg, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = srv.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errortypes.Is(err, errortypes.KindAuth))
	assert.Equal(t, http.StatusUnauthorized, errortypes.As(err).Status)
}

func TestToolsListsCatalog(t *testing.T) {
	cfg := newRedmine(t, func(w http.ResponseWriter, r *http.Request) {})
	srv, err := NewServer(ServerOptions{Config: cfg, Logger: quietLogger()})
	require.NoError(t, err)

	descriptors := srv.Tools()
	require.NotEmpty(t, descriptors)
	seen := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		assert.False(t, seen[d.Name], "duplicate tool %s", d.Name)
		seen[d.Name] = true
	}
	for _, name := range []string{"get_project", "create_issue", "upload_file", "download_attachment", "search"} {
		assert.True(t, seen[name], "missing tool %s", name)
	}
}

func TestClientOptionsFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Redmine.URL = "https://redmine.example.com/"
	cfg.Redmine.Username = "admin"
	cfg.Redmine.Password = "pw"
	cfg.Redmine.TimeoutSeconds = 5

	opts := ClientOptions(cfg, nil, nil)
	assert.Equal(t, "https://redmine.example.com/", opts.BaseURL)
	assert.Equal(t, "admin", opts.Username)
	assert.Equal(t, 5, int(opts.Timeout.Seconds()))
	assert.Equal(t, 60, int(opts.UploadTimeout.Seconds()))
}
