package main

import (
	"fmt"

	"github.com/hyperengineering/vista"
	"github.com/hyperengineering/vista/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "vista",
	Short: "Vista - dashboard settings CLI",
	Long: `Vista manages the settings, datasets and workspaces behind a dashboard.

Its main job is keeping the default dataset valid: 'vista ensure' clears a
default that points at a deleted dataset, assigns the first dataset when none
is set, and reports where to create one when no datasets exist.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to a YAML config file")
	flags.String("db-path", "", "Path to the settings database (default: derived from workspace)")
	flags.StringP("workspace", "w", "", "Workspace database to use (default: $VISTA_WORKSPACE or 'default')")
	flags.String("can-update-settings", "", "Allow settings writes during ensure: true or false")
	flags.String("redirect-target", "", "Where to send users when no dataset exists")
	flags.String("log-format", "", "Log format: text or json")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&outputJSON, "json", false, "Output as JSON")
}

// newClient loads configuration and opens a client for the resolved workspace.
func newClient(cmd *cobra.Command) (*vista.Client, error) {
	cfg, err := loadConfig(rootCmd.PersistentFlags())
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Options{
		Service: "vista",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
		Writer:  cmd.ErrOrStderr(),
	})

	client, err := vista.New(cfg, vista.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("initialize client: %w", err)
	}
	return client, nil
}
