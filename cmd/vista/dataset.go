package main

import (
	"fmt"

	"github.com/hyperengineering/vista"
	"github.com/spf13/cobra"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage datasets",
	Long: `Manage the datasets registered in a workspace.

Subcommands:
  list    List datasets in creation order
  create  Register a dataset
  delete  Remove a dataset`,
}

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List datasets",
	Long: `List datasets in creation order. The default dataset is marked with '*'.

Example:
  vista dataset list
  vista dataset list --match 'logs-*' --json`,
	Args: cobra.NoArgs,
	RunE: runDatasetList,
}

var datasetCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Register a dataset",
	Long: `Register a dataset. Run 'vista ensure' afterwards to make it the
default when none is set.

Example:
  vista dataset create 'logs-*' --time-field @timestamp`,
	Args: cobra.ExactArgs(1),
	RunE: runDatasetCreate,
}

var datasetDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a dataset",
	Long: `Remove a dataset. If it was the default, the next 'vista ensure'
replaces it.`,
	Args: cobra.ExactArgs(1),
	RunE: runDatasetDelete,
}

var (
	datasetMatch     string
	datasetTimeField string
	datasetID        string
)

func init() {
	datasetListCmd.Flags().StringVar(&datasetMatch, "match", "", "Glob applied to dataset titles")
	datasetCreateCmd.Flags().StringVar(&datasetTimeField, "time-field", "", "Timestamp field name")
	datasetCreateCmd.Flags().StringVar(&datasetID, "id", "", "Dataset ID (default: generated)")

	datasetCmd.AddCommand(datasetListCmd)
	datasetCmd.AddCommand(datasetCreateCmd)
	datasetCmd.AddCommand(datasetDeleteCmd)
	rootCmd.AddCommand(datasetCmd)
}

func runDatasetList(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	datasets, err := client.ListDatasets(ctx, datasetMatch)
	if err != nil {
		return err
	}
	def, err := client.GetSetting(ctx, vista.SettingDefaultDataset)
	if err != nil {
		return fmt.Errorf("read default dataset: %w", err)
	}
	return outputDatasets(cmd, datasets, def)
}

func runDatasetCreate(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	ds, err := client.Store().CreateDataset(cmd.Context(), vista.Dataset{
		ID:        datasetID,
		Title:     args[0],
		TimeField: datasetTimeField,
	})
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, ds)
	}
	printSuccess(cmd.OutOrStdout(), "Created dataset %s (%s)", ds.ID, ds.Title)
	return nil
}

func runDatasetDelete(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DeleteDataset(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete dataset %s: %w", args[0], err)
	}

	if outputJSON {
		return outputAsJSON(cmd, map[string]string{"deleted": args[0]})
	}
	printSuccess(cmd.OutOrStdout(), "Deleted dataset %s", args[0])
	return nil
}
