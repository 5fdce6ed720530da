package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/localrivet/redminemcp/internal/config"
	"github.com/localrivet/redminemcp/internal/dispatch"
	"github.com/localrivet/redminemcp/internal/tools"
)

// newServeCmd creates the "serve" subcommand.
func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the Redmine tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, appLogger, err := opts.newServer(cmd)
			if err != nil {
				return err
			}
			log := appLogger.WithContext("serve")

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(signals)
			go func() {
				if _, ok := <-signals; ok {
					log.Info("Received shutdown signal, terminating gracefully...")
					_ = srv.Stop()
					os.Exit(0)
				}
			}()

			log.Info("Serving %d tools on stdio", len(srv.Tools()))
			if err := srv.Start(); err != nil {
				log.Error("MCP server failed: %v", err)
				return err
			}
			return srv.Stop()
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newToolsCmd creates the "tools" subcommand. It needs no Redmine connection.
func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools [name]",
		Short: "List the available tools, or describe one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			category, _ := cmd.Flags().GetString("category")

			registry, err := dispatch.NewRegistry(tools.Catalog())
			if err != nil {
				return err
			}

			descriptors := registry.Descriptors()
			if len(args) == 1 {
				t, ok := registry.Lookup(args[0])
				if !ok {
					return exitError(exitFailure, "unknown tool %q", args[0])
				}
				descriptors = []tools.Descriptor{t.Descriptor}
			} else if category != "" {
				descriptors = filterCategory(descriptors, category)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeSchemas(out, descriptors)
			}
			if len(args) == 1 {
				fmt.Fprintf(out, "%s\n\n%s\n", descriptors[0].Name, descriptors[0].Summary())
				return nil
			}
			return writeToolTable(out, descriptors)
		},
	}
	cmd.Flags().Bool("json", false, "Print MCP tool definitions with JSON schemas")
	cmd.Flags().String("category", "", "Only list tools in this category")
	return cmd
}

func filterCategory(descriptors []tools.Descriptor, category string) []tools.Descriptor {
	var out []tools.Descriptor
	for _, d := range descriptors {
		if strings.EqualFold(d.Category, category) {
			out = append(out, d)
		}
	}
	return out
}

func writeToolTable(w io.Writer, descriptors []tools.Descriptor) error {
	sorted := append([]tools.Descriptor(nil), descriptors...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Category != sorted[j].Category {
			return sorted[i].Category < sorted[j].Category
		}
		return sorted[i].Name < sorted[j].Name
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tTOOL\tDESCRIPTION")
	for _, d := range sorted {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Category, d.Name, d.Description)
	}
	return tw.Flush()
}

func writeSchemas(w io.Writer, descriptors []tools.Descriptor) error {
	defs := make([]map[string]interface{}, 0, len(descriptors))
	for _, d := range descriptors {
		defs = append(defs, map[string]interface{}{
			"name":        d.Name,
			"description": d.Description,
			"inputSchema": d.JSONSchema(),
		})
	}
	return writeJSON(w, defs)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newCallCmd creates the "call" subcommand.
func newCallCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <tool> [json-arguments]",
		Short: "Invoke one tool and print its result envelope",
		Long:  "Invoke one tool. Arguments are a JSON object given inline, with --args-file, or on stdin with '-'.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			argsFile, _ := cmd.Flags().GetString("args-file")
			toolArgs, err := readArguments(cmd.InOrStdin(), args[1:], argsFile)
			if err != nil {
				return err
			}

			srv, _, err := opts.newServer(cmd)
			if err != nil {
				return err
			}

			env := srv.Dispatch(commandContext(cmd), args[0], toolArgs)
			pretty, err := env.Indented()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
			if !env.Success {
				return exitError(exitToolFailed, "%s: %s", env.Error.Kind, env.Error.Message)
			}
			return nil
		},
	}
	cmd.Flags().String("args-file", "", "Read the JSON arguments from this file")
	return cmd
}

// readArguments parses the tool arguments from the first available source.
func readArguments(stdin io.Reader, inline []string, argsFile string) (map[string]interface{}, error) {
	var raw []byte
	switch {
	case argsFile != "":
		data, err := os.ReadFile(argsFile)
		if err != nil {
			return nil, exitError(exitInputParse, "reading %s: %v", argsFile, err)
		}
		raw = data
	case len(inline) == 1 && inline[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, exitError(exitInputParse, "reading stdin: %v", err)
		}
		raw = data
	case len(inline) == 1:
		raw = []byte(inline[0])
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, exitError(exitInputParse, "arguments must be a JSON object: %v", err)
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}

// newCheckCmd creates the "check" subcommand.
func newCheckCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the Redmine URL and credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, _, err := opts.newServer(cmd)
			if err != nil {
				return err
			}

			env, err := srv.Ping(commandContext(cmd))
			if err != nil {
				return exitError(exitUnreachable, "%s: %v", srv.GetConfig().Redmine.URL, err)
			}

			login := ""
			if user, ok := env.Payload.(map[string]interface{}); ok {
				login, _ = user["login"].(string)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: connected to %s as %q\n", srv.GetConfig().Redmine.URL, login)
			return nil
		},
	}
}

// newConfigCmd creates the "config" command group.
func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration template (credentials are never written)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigFilename
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				force, _ := cmd.Flags().GetBool("force")
				if !force {
					return exitError(exitFailure, "%s already exists (use --force to overwrite)", path)
				}
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.SaveToFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with credentials masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			shown := cfg.Template()
			if cfg.Redmine.APIKey != "" {
				shown.Redmine.APIKey = "********"
			}
			if cfg.Redmine.Password != "" {
				shown.Redmine.Password = "********"
			}
			return writeJSON(cmd.OutOrStdout(), shown)
		},
	})
	return cmd
}
