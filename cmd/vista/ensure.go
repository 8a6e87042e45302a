package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ensureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Ensure a valid default dataset is set",
	Long: `Run one default dataset resolution pass for the workspace.

  - A default that names a missing dataset is removed.
  - When no default is set, the first dataset becomes the default.
  - When no datasets exist, the redirect target is reported unless
    query enhancements are enabled.

Nothing is read or written when --can-update-settings=false.

Example:
  vista ensure
  vista ensure --workspace team-a --json`,
	Args: cobra.NoArgs,
	RunE: runEnsure,
}

func init() {
	rootCmd.AddCommand(ensureCmd)
}

func runEnsure(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.EnsureDefaultDataset(cmd.Context())
	if err != nil {
		return fmt.Errorf("ensure default dataset: %w", err)
	}
	return outputResolution(cmd, res)
}
