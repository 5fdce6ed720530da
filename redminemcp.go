// Package redminemcp exposes the Redmine REST API as MCP tools. Server can
// be embedded in another program or run over stdio by cmd/redminemcp.
package redminemcp

import (
	"context"
	"log/slog"

	"github.com/localrivet/redminemcp/internal/config"
	"github.com/localrivet/redminemcp/internal/dispatch"
	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/localrivet/redminemcp/internal/redmine"
	"github.com/localrivet/redminemcp/internal/server"
	"github.com/localrivet/redminemcp/internal/telemetry"
	"github.com/localrivet/redminemcp/internal/tools"
	"github.com/localrivet/redminemcp/internal/util"
)

// Config represents the configuration for the redmine-mcp service.
type Config = config.Config

// Envelope is the result of every dispatch.
type Envelope = dispatch.Envelope

// Descriptor describes one tool and its parameters.
type Descriptor = tools.Descriptor

// Server represents the redmine-mcp service.
type Server struct {
	config     *config.Config
	dispatcher *dispatch.Dispatcher
	toolServer server.ToolServer
	metrics    *telemetry.MetricsCollector
	logger     *slog.Logger
}

// ServerOptions defines the options for creating a new Server.
type ServerOptions struct {
	Config     *Config      // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string       // Path to config file. Used if Config is nil; empty means the default search.
	Logger     *slog.Logger // External logger. If nil, slog.Default() is used.

	// Caller replaces the HTTP client, e.g. with a fake in tests. When set
	// the Redmine connection settings are not validated.
	Caller redmine.Caller

	// Metrics receives dispatch and transport metrics. A collector is created if nil.
	Metrics *telemetry.MetricsCollector
}

// NewServer creates a new Server with the given options.
func NewServer(opts ServerOptions) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := opts.Config
	if cfg == nil {
		var err error
		logger.Debug("Loading configuration", "path", opts.ConfigPath)
		cfg, err = config.LoadConfigWithPath(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetricsCollector()
	}

	caller := opts.Caller
	if caller == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		client, err := redmine.NewClient(ClientOptions(cfg, logger, metrics))
		if err != nil {
			return nil, err
		}
		caller = client
		logger.Info("Redmine client configured",
			"url", client.BaseURL(),
			"credential", util.CredentialFingerprint(cfg.Redmine.APIKey, cfg.Redmine.Username))
	}

	registry, err := dispatch.NewRegistry(tools.Catalog())
	if err != nil {
		return nil, err
	}
	d := dispatch.New(registry, caller, dispatch.WithLogger(logger), dispatch.WithMetrics(metrics))

	toolServer := server.NewToolServer(server.DefaultName, d, logger)
	if err := toolServer.Initialize(); err != nil {
		return nil, errortypes.ConfigError(err, "failed to initialize MCP tool server")
	}

	logger.Info("redmine-mcp server initialized", "tools", registry.Len())
	return &Server{
		config:     cfg,
		dispatcher: d,
		toolServer: toolServer,
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// DefaultConfig returns the default configuration. The Redmine URL and a
// credential still have to be supplied.
func DefaultConfig() *Config {
	return config.NewConfig()
}

// ClientOptions maps a configuration onto transport options.
func ClientOptions(cfg *Config, logger *slog.Logger, metrics *telemetry.MetricsCollector) redmine.Options {
	return redmine.Options{
		BaseURL:            cfg.Redmine.URL,
		APIKey:             cfg.Redmine.APIKey,
		Username:           cfg.Redmine.Username,
		Password:           cfg.Redmine.Password,
		UserAgent:          cfg.Redmine.UserAgent,
		Timeout:            cfg.Timeout(),
		UploadTimeout:      cfg.UploadTimeout(),
		InsecureSkipVerify: cfg.Redmine.InsecureSkipVerify,
		Logger:             logger,
		Metrics:            metrics,
	}
}

// Dispatch runs one tool invocation and returns its envelope.
func (s *Server) Dispatch(ctx context.Context, name string, args map[string]interface{}) Envelope {
	return s.dispatcher.Dispatch(ctx, name, args)
}

// Tools returns the descriptors of every registered tool in catalog order.
func (s *Server) Tools() []Descriptor {
	return s.dispatcher.Registry().Descriptors()
}

// Ping verifies that the configured credential is accepted by Redmine.
func (s *Server) Ping(ctx context.Context) (Envelope, error) {
	env := s.Dispatch(ctx, "get_current_user", nil)
	if !env.Success {
		return env, env.Error.Err()
	}
	return env, nil
}

// Metrics returns the collector shared by the dispatcher and transport.
func (s *Server) Metrics() *telemetry.MetricsCollector {
	return s.metrics
}

// GetConfig returns the configuration the server was built with.
func (s *Server) GetConfig() *Config {
	return s.config
}

// Start serves MCP over stdio until stdin closes.
func (s *Server) Start() error {
	s.logger.Info("Starting redmine-mcp service")
	return s.toolServer.Start()
}

// Stop cancels in-flight invocations.
func (s *Server) Stop() error {
	s.logger.Info("Stopping redmine-mcp service")
	if err := s.toolServer.Stop(); err != nil {
		s.logger.Error("Error stopping tool server", "error", err)
		return err
	}
	s.logger.Debug("Final metrics\n" + s.metrics.GetReport())
	return nil
}
