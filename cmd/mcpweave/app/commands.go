// Package app provides the entry point for the mcpweave command-line
// application.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mcpweave/mcpweave/pkg/bridge/aggregator"
	"github.com/mcpweave/mcpweave/pkg/bridge/config"
	"github.com/mcpweave/mcpweave/pkg/bridge/manager"
	"github.com/mcpweave/mcpweave/pkg/bridge/server"
	"github.com/mcpweave/mcpweave/pkg/logging"
	"github.com/mcpweave/mcpweave/pkg/telemetry"
)

// version is overwritten at build time via -ldflags.
var version = "dev"

// stopTimeout bounds manager.Stop on shutdown; it is longer than the
// manager's own 1s session-teardown grace window.
const stopTimeout = 2 * time.Second

var rootCmd = &cobra.Command{
	Use:               "mcpweave",
	DisableAutoGenTag: true,
	Short:             "mcpweave - aggregate and proxy multiple MCP servers behind a single gateway",
	Long: `mcpweave is an aggregating MCP gateway. It connects to a set of configured
backend MCP servers, merges their tools, resources, and prompts into a single
namespaced catalogue, and routes inbound calls back to the owning backend -
retrying and reconnecting on transient backend failure without surfacing the
detail to the caller.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := cmd.Help(); err != nil {
			logging.Errorf("error displaying help: %v", err)
		}
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logging.Initialize(viper.GetBool("debug"))
	},
}

// NewRootCmd creates the root command for the mcpweave CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logging.Errorf("error binding debug flag: %v", err)
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to mcpweave configuration file")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		logging.Errorf("error binding config flag: %v", err)
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.SilenceUsage = true
	return rootCmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect configured backends and run the aggregating gateway",
		Long: `Load the configuration file named by --config, connect every enabled
backend, and run the aggregated MCP server until interrupted.

Mounting the aggregated server over a concrete wire transport (HTTP/SSE) is
left to a hosting process satisfying server.Hostable; this command wires and
runs the core multiplexing fabric only.`,
		RunE: runServe,
	}
	cmd.Flags().String("conflict-resolution", "", "Override the configured conflict resolution policy (priority|namespace|first|error)")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate the mcpweave configuration file for schema and semantic errors:
JSON syntax, required fields, and per-backend/bridge-wide constraints.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			configPath := viper.GetString("config")
			if configPath == "" {
				return fmt.Errorf("no configuration file specified, use --config flag")
			}

			logging.Infof("validating configuration: %s", configPath)
			cfg, err := config.Load(configPath)
			if err != nil {
				logging.Errorf("configuration is invalid: %v", err)
				return err
			}

			logging.Infof("configuration is valid")
			logging.Infof("  backends: %d configured", len(cfg.Backends))
			logging.Infof("  conflict resolution: %s", cfg.Bridge.ConflictResolution)
			logging.Infof("  aggregation: tools=%t resources=%t prompts=%t",
				cfg.Bridge.Aggregation.Tools, cfg.Bridge.Aggregation.Resources, cfg.Bridge.Aggregation.Prompts)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			logging.Infof("mcpweave version: %s", version)
		},
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	configPath := viper.GetString("config")
	if configPath == "" {
		return fmt.Errorf("no configuration file specified, use --config flag")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("configuration loading failed: %w", err)
	}

	if cr, _ := cmd.Flags().GetString("conflict-resolution"); cr != "" {
		overrides := config.CLIOverrides{ConflictResolution: config.ConflictResolution(cr)}
		if err := config.ApplyCLIOverrides(cfg, overrides); err != nil {
			return fmt.Errorf("applying CLI overrides: %w", err)
		}
	}

	metrics := telemetry.NewMetrics(nil)

	mgr := manager.New(cfg, metrics)
	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("starting backend manager: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := mgr.Stop(stopCtx); err != nil {
			logging.Warnf("shutting down backend manager: %v", err)
		}
	}()

	agg := aggregator.New(mgr, cfg.Bridge)
	facade := server.New("mcpweave", version, agg, cfg.Bridge)
	facade.Refresh(ctx)

	logging.Infof("mcpweave gateway ready with %d active backend(s)", len(mgr.ActiveBackends()))
	logging.Infof("mount facade.MCPServer() over a transport satisfying server.Hostable to accept client connections")

	<-ctx.Done()
	logging.Infof("shutdown signal received, stopping")
	return nil
}
