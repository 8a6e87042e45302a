package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var describeClear bool

var describeCmd = &cobra.Command{
	Use:   "describe [text]",
	Short: "Show or set the workspace database description",
	Long: `Show or set the free-text description stored with the workspace
database. The description is written into exports and restored by import
when the target has none (or always with --merge-strategy replace).

Example:
  vista describe
  vista describe "Ops team dashboards"
  vista describe --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDescribe,
}

func init() {
	describeCmd.Flags().BoolVar(&describeClear, "clear", false, "Remove the description")
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()

	switch {
	case describeClear && len(args) > 0:
		return errors.New("--clear takes no text")
	case describeClear:
		if err := client.SetDescription(""); err != nil {
			return fmt.Errorf("clear description: %w", err)
		}
	case len(args) == 1:
		if err := client.SetDescription(args[0]); err != nil {
			return fmt.Errorf("set description: %w", err)
		}
	}

	desc, err := client.Description()
	if err != nil {
		return fmt.Errorf("read description: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, map[string]string{
			"workspace":   client.Config().Workspace,
			"description": desc,
		})
	}
	if desc == "" {
		printMuted(out, "No description set")
		return nil
	}
	printField(out, "Description", desc)
	return nil
}
