package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var settingCmd = &cobra.Command{
	Use:   "setting",
	Short: "Read and write settings",
	Long: `Read and write workspace settings.

Well-known keys:
  defaultIndex                 Default dataset ID
  query:enhancements:enabled   Query enhancement mode (true/false)`,
}

var settingGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show one setting, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingGet,
}

var settingSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingSet,
}

var settingRemoveCmd = &cobra.Command{
	Use:   "remove <key>",
	Short: "Remove a setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingRemove,
}

func init() {
	settingCmd.AddCommand(settingGetCmd)
	settingCmd.AddCommand(settingSetCmd)
	settingCmd.AddCommand(settingRemoveCmd)
	rootCmd.AddCommand(settingCmd)
}

func runSettingGet(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		value, err := client.GetSetting(ctx, args[0])
		if err != nil {
			return err
		}
		if outputJSON {
			return outputAsJSON(cmd, map[string]string{"key": args[0], "value": value})
		}
		if value == "" {
			printMuted(out, "%s is not set", args[0])
			return nil
		}
		fmt.Fprintln(out, value)
		return nil
	}

	all, err := client.Settings(ctx)
	if err != nil {
		return err
	}
	if outputJSON {
		return outputAsJSON(cmd, all)
	}
	if len(all) == 0 {
		fmt.Fprintln(out, "No settings.")
		return nil
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, all[k]})
	}
	fmt.Fprintln(out, renderTable([]string{"KEY", "VALUE"}, rows))
	return nil
}

func runSettingSet(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.SetSetting(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	if outputJSON {
		return outputAsJSON(cmd, map[string]string{"key": args[0], "value": args[1]})
	}
	printSuccess(cmd.OutOrStdout(), "Set %s = %s", args[0], args[1])
	return nil
}

func runSettingRemove(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.RemoveSetting(cmd.Context(), args[0]); err != nil {
		return err
	}
	if outputJSON {
		return outputAsJSON(cmd, map[string]string{"removed": args[0]})
	}
	printSuccess(cmd.OutOrStdout(), "Removed %s", args[0])
	return nil
}
