package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/localrivet/redminemcp"
	"github.com/localrivet/redminemcp/internal/config"
	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/localrivet/redminemcp/internal/logger"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	envFile    string
	url        string
	apiKey     string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "redminemcp",
		Short: "Redmine tools for MCP clients",
		Long:  "redminemcp serves the Redmine REST API as MCP tools over stdio, and can list or call those tools directly.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadDotEnv(opts.envFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultConfigFilename, "Path to the JSON config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before configuration (ignored if missing)")
	flags.StringVar(&opts.url, "url", "", "Redmine base URL (overrides REDMINE_URL)")
	flags.StringVar(&opts.apiKey, "api-key", "", "Redmine API key (overrides REDMINE_API_KEY)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug | info | warn | error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: text | json")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("redminemcp version %s\n", version))

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newToolsCmd())
	root.AddCommand(newCallCmd(opts))
	root.AddCommand(newCheckCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	return root
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return exitError(exitConfig, "loading %s: %v", path, err)
	}
	return nil
}

// loadConfig reads the config file and environment, then applies flag overrides.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithPath(o.configPath)
	if err != nil {
		return nil, exitError(exitConfig, "%v", err)
	}
	if o.url != "" {
		cfg.Redmine.URL = o.url
	}
	if o.apiKey != "" {
		cfg.Redmine.APIKey = o.apiKey
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	return cfg, nil
}

// newServer builds a server whose logs go to the command's stderr.
func (o *globalOptions) newServer(cmd *cobra.Command) (*redminemcp.Server, *logger.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	appLogger := logger.New(&logger.Config{
		Level:       logger.ParseLevel(cfg.Logging.Level),
		Format:      logger.ParseFormat(cfg.Logging.Format),
		Output:      cmd.ErrOrStderr(),
		DefaultTags: map[string]interface{}{"service": logger.ServiceName},
	})
	slogger := logger.NewSlog(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	slog.SetDefault(slogger)

	srv, err := redminemcp.NewServer(redminemcp.ServerOptions{Config: cfg, Logger: slogger})
	if err != nil {
		if errortypes.Is(err, errortypes.KindConfig) {
			return nil, nil, exitError(exitConfig, "%v", err)
		}
		return nil, nil, err
	}
	return srv, appLogger, nil
}
