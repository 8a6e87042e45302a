package main

import (
	"fmt"
	"strings"

	"github.com/hyperengineering/vista"
	"github.com/hyperengineering/vista/workspace"
	"github.com/spf13/cobra"
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage workspace records",
	Long: `Manage workspace records: name, privacy and assigned data sources.

Subcommands:
  create    Create a workspace
  show      Show one workspace, or list all of them
  privacy   Change who can access a workspace
  assign    Assign OpenSearch connections as data sources
  unassign  Remove assigned data sources
  delete    Delete a workspace record

Privacy types:
  private-to-collaborators  Only workspace collaborators can access the workspace.
  anyone-can-view           Anyone can view workspace assets.
  anyone-can-edit           Anyone can view and edit workspace assets.`,
}

var workspaceCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a workspace",
	Long: `Create a workspace record.

Data sources are given as id=title pairs.

Example:
  vista workspace create Ops --privacy anyone-can-view --source os-1=prod`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkspaceCreate,
}

var workspaceShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a workspace, or list all",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWorkspaceShow,
}

var workspacePrivacyCmd = &cobra.Command{
	Use:   "privacy <id> <type>",
	Short: "Change a workspace's privacy type",
	Args:  cobra.ExactArgs(2),
	RunE:  runWorkspacePrivacy,
}

var workspaceAssignCmd = &cobra.Command{
	Use:   "assign <id> <connection>...",
	Short: "Assign connections as data sources",
	Long: `Assign connections to a workspace. Each connection is id=name.

Only OpenSearch connections become data sources; with
--connection-type direct-query-connection nothing is assigned.

Example:
  vista workspace assign 01J... os-2=staging os-3=dev --engine OpenSearch`,
	Args: cobra.MinimumNArgs(2),
	RunE: runWorkspaceAssign,
}

var workspaceUnassignCmd = &cobra.Command{
	Use:   "unassign <id> <data-source-id>...",
	Short: "Remove assigned data sources",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runWorkspaceUnassign,
}

var workspaceDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a workspace record",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceDelete,
}

var (
	workspaceDescription    string
	workspacePrivacy        string
	workspaceSources        []string
	workspaceAdmin          bool
	workspaceEngine         string
	workspaceConnectionType string
)

func init() {
	workspaceCreateCmd.Flags().StringVar(&workspaceDescription, "description", "", "Workspace description")
	workspaceCreateCmd.Flags().StringVar(&workspacePrivacy, "privacy", "", "Privacy type (default: private-to-collaborators)")
	workspaceCreateCmd.Flags().StringSliceVar(&workspaceSources, "source", nil, "Data source as id=title (repeatable)")
	workspaceShowCmd.Flags().BoolVar(&workspaceAdmin, "admin", false, "Also list the data source actions available to an admin")
	workspaceAssignCmd.Flags().StringVar(&workspaceEngine, "engine", "", "Engine type recorded on each data source")
	workspaceAssignCmd.Flags().StringVar(&workspaceConnectionType, "connection-type", string(workspace.ConnectionOpenSearch), "Connection type of the given connections")

	workspaceCmd.AddCommand(workspaceCreateCmd)
	workspaceCmd.AddCommand(workspaceShowCmd)
	workspaceCmd.AddCommand(workspacePrivacyCmd)
	workspaceCmd.AddCommand(workspaceAssignCmd)
	workspaceCmd.AddCommand(workspaceUnassignCmd)
	workspaceCmd.AddCommand(workspaceDeleteCmd)
	rootCmd.AddCommand(workspaceCmd)
}

// parsePair splits "id=name"; a bare id is used as its own name.
func parsePair(s string) (string, string, error) {
	id, name, found := strings.Cut(s, "=")
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", fmt.Errorf("invalid data source %q: want id=title", s)
	}
	if !found || strings.TrimSpace(name) == "" {
		name = id
	}
	return id, strings.TrimSpace(name), nil
}

func runWorkspaceCreate(cmd *cobra.Command, args []string) error {
	params := vista.WorkspaceParams{
		Name:        args[0],
		Description: workspaceDescription,
	}
	if workspacePrivacy != "" {
		p, err := workspace.ParsePrivacyType(workspacePrivacy)
		if err != nil {
			return err
		}
		params.Privacy = p
	}
	for _, s := range workspaceSources {
		id, title, err := parsePair(s)
		if err != nil {
			return err
		}
		params.DataSources = append(params.DataSources, workspace.DataSource{ID: id, Title: title})
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	ws, err := client.CreateWorkspace(cmd.Context(), params)
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	if outputJSON {
		return outputAsJSON(cmd, ws)
	}
	printSuccess(cmd.OutOrStdout(), "Created workspace %s (%s)", ws.ID, ws.Name)
	return nil
}

func runWorkspaceShow(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	if len(args) == 0 {
		list, err := client.ListWorkspaces(ctx)
		if err != nil {
			return err
		}
		return outputWorkspaces(cmd, list)
	}

	ws, err := client.GetWorkspace(ctx, args[0])
	if err != nil {
		return err
	}
	if err := outputWorkspace(cmd, ws); err != nil {
		return err
	}
	if workspaceAdmin && !outputJSON {
		actions := workspace.PanelActions(true, 0, len(ws.DataSources))
		names := make([]string, len(actions))
		for i, a := range actions {
			names[i] = string(a)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		printMuted(cmd.OutOrStdout(), "Actions: %s", strings.Join(names, ", "))
	}
	return nil
}

func runWorkspacePrivacy(cmd *cobra.Command, args []string) error {
	privacy, err := workspace.ParsePrivacyType(args[1])
	if err != nil {
		return err
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	ws, err := client.SetWorkspacePrivacy(cmd.Context(), args[0], privacy)
	if err != nil {
		return err
	}
	if outputJSON {
		return outputAsJSON(cmd, ws)
	}
	printSuccess(cmd.OutOrStdout(), "Workspace %s is now %s", ws.ID, ws.Privacy.Copy().Title)
	return nil
}

func runWorkspaceAssign(cmd *cobra.Command, args []string) error {
	picked := make([]workspace.DataSourceConnection, 0, len(args)-1)
	for _, s := range args[1:] {
		id, name, err := parsePair(s)
		if err != nil {
			return err
		}
		picked = append(picked, workspace.DataSourceConnection{
			ID:             id,
			Name:           name,
			Type:           workspaceEngine,
			ConnectionType: workspace.ConnectionType(workspaceConnectionType),
		})
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	ws, err := client.AssignDataSources(cmd.Context(), args[0], picked)
	if err != nil {
		return err
	}
	return outputWorkspace(cmd, ws)
}

func runWorkspaceUnassign(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	ws, err := client.UnassignDataSources(cmd.Context(), args[0], args[1:])
	if err != nil {
		return err
	}
	return outputWorkspace(cmd, ws)
}

func runWorkspaceDelete(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DeleteWorkspace(cmd.Context(), args[0]); err != nil {
		return err
	}
	if outputJSON {
		return outputAsJSON(cmd, map[string]string{"deleted": args[0]})
	}
	printSuccess(cmd.OutOrStdout(), "Deleted workspace %s", args[0])
	return nil
}
