// Package mcp exposes the vista client as MCP (Model Context Protocol) tools
// served over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperengineering/vista"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server with vista tools.
type Server struct {
	client    *vista.Client
	mcpServer *server.MCPServer
}

// ToolResult represents the result of a tool call.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolInfo represents a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server with vista tools registered.
func NewServer(client *vista.Client, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{client: client}
	s.mcpServer = server.NewMCPServer(
		"vista",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// Run serves MCP over stdin/stdout until the client disconnects.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// HandleMessage processes a raw JSON-RPC message and returns a response.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, message)
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "vista_ensure_default", Description: "Ensure a valid default dataset is configured"},
		{Name: "vista_dataset_list", Description: "List registered datasets"},
		{Name: "vista_dataset_create", Description: "Register a new dataset"},
		{Name: "vista_setting_get", Description: "Read a setting value"},
		{Name: "vista_setting_set", Description: "Write a setting value"},
		{Name: "vista_workspace_show", Description: "Show one workspace or list all of them"},
		{Name: "vista_workspace_privacy", Description: "Change a workspace's privacy type"},
	}
}

// CallTool executes a tool by name with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	switch name {
	case "vista_ensure_default":
		return s.handleEnsure(ctx, args)
	case "vista_dataset_list":
		return s.handleDatasetList(ctx, args)
	case "vista_dataset_create":
		return s.handleDatasetCreate(ctx, args)
	case "vista_setting_get":
		return s.handleSettingGet(ctx, args)
	case "vista_setting_set":
		return s.handleSettingSet(ctx, args)
	case "vista_workspace_show":
		return s.handleWorkspaceShow(ctx, args)
	case "vista_workspace_privacy":
		return s.handleWorkspacePrivacy(ctx, args)
	default:
		return &ToolResult{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}, nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("vista_ensure_default",
		mcp.WithDescription("Ensure the default dataset setting points at an existing dataset. Removes a stale value, assigns the first dataset when none is set, and reports a redirect when no datasets exist."),
	), s.wrap(s.handleEnsure))

	s.mcpServer.AddTool(mcp.NewTool("vista_dataset_list",
		mcp.WithDescription("List registered datasets in creation order. The default dataset is marked."),
		mcp.WithString("match",
			mcp.Description("Glob applied to dataset titles (e.g. 'logs-*')"),
		),
	), s.wrap(s.handleDatasetList))

	s.mcpServer.AddTool(mcp.NewTool("vista_dataset_create",
		mcp.WithDescription("Register a new dataset. Run vista_ensure_default afterwards to make it the default when none is set."),
		mcp.WithString("title",
			mcp.Description("Dataset title or index pattern"),
			mcp.Required(),
		),
		mcp.WithString("time_field",
			mcp.Description("Name of the timestamp field, if any"),
		),
	), s.wrap(s.handleDatasetCreate))

	s.mcpServer.AddTool(mcp.NewTool("vista_setting_get",
		mcp.WithDescription("Read a setting value. Unset keys return an empty value."),
		mcp.WithString("key",
			mcp.Description("Setting key (e.g. 'defaultIndex')"),
			mcp.Required(),
		),
	), s.wrap(s.handleSettingGet))

	s.mcpServer.AddTool(mcp.NewTool("vista_setting_set",
		mcp.WithDescription("Write a setting value. An empty value removes the key."),
		mcp.WithString("key",
			mcp.Description("Setting key"),
			mcp.Required(),
		),
		mcp.WithString("value",
			mcp.Description("New value"),
		),
	), s.wrap(s.handleSettingSet))

	s.mcpServer.AddTool(mcp.NewTool("vista_workspace_show",
		mcp.WithDescription("Show a workspace with its privacy and assigned data sources. Lists all workspaces when no id is given."),
		mcp.WithString("id",
			mcp.Description("Workspace ID"),
		),
	), s.wrap(s.handleWorkspaceShow))

	s.mcpServer.AddTool(mcp.NewTool("vista_workspace_privacy",
		mcp.WithDescription("Change who can access a workspace."),
		mcp.WithString("id",
			mcp.Description("Workspace ID"),
			mcp.Required(),
		),
		mcp.WithString("privacy",
			mcp.Description("One of: private-to-collaborators, anyone-can-view, anyone-can-edit"),
			mcp.Required(),
		),
	), s.wrap(s.handleWorkspacePrivacy))
}

type handlerFunc func(ctx context.Context, args map[string]any) (*ToolResult, error)

// wrap adapts an internal handler to the mcp-go handler signature.
func (s *Server) wrap(h handlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := h(ctx, req.GetArguments())
		if err != nil {
			return nil, err
		}
		return toMCPResult(result), nil
	}
}

func toMCPResult(r *ToolResult) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: r.Content,
			},
		},
	}
	if r.IsError {
		result.IsError = true
	}
	return result
}

func errorResult(format string, args ...any) *ToolResult {
	return &ToolResult{Content: fmt.Sprintf(format, args...), IsError: true}
}

// Internal handlers

func (s *Server) handleEnsure(ctx context.Context, _ map[string]any) (*ToolResult, error) {
	res, err := s.client.EnsureDefaultDataset(ctx)
	if err != nil {
		return errorResult("ensure default dataset failed: %v", err), nil
	}
	return &ToolResult{Content: formatResolution(res)}, nil
}

func (s *Server) handleDatasetList(ctx context.Context, args map[string]any) (*ToolResult, error) {
	match, _ := args["match"].(string)

	datasets, err := s.client.ListDatasets(ctx, match)
	if err != nil {
		return errorResult("list datasets failed: %v", err), nil
	}
	def, err := s.client.GetSetting(ctx, vista.SettingDefaultDataset)
	if err != nil {
		return errorResult("read default dataset failed: %v", err), nil
	}
	return &ToolResult{Content: formatDatasetList(datasets, def, match)}, nil
}

func (s *Server) handleDatasetCreate(ctx context.Context, args map[string]any) (*ToolResult, error) {
	title, _ := args["title"].(string)
	if strings.TrimSpace(title) == "" {
		return errorResult("title is required"), nil
	}
	timeField, _ := args["time_field"].(string)

	ds, err := s.client.CreateDataset(ctx, title, timeField)
	if err != nil {
		return errorResult("create dataset failed: %v", err), nil
	}
	return &ToolResult{Content: fmt.Sprintf("Created dataset [%s]: %s", ds.ID, ds.Title)}, nil
}

func (s *Server) handleSettingGet(ctx context.Context, args map[string]any) (*ToolResult, error) {
	key, _ := args["key"].(string)
	if key == "" {
		return errorResult("key is required"), nil
	}

	value, err := s.client.GetSetting(ctx, key)
	if err != nil {
		return errorResult("read setting failed: %v", err), nil
	}
	if value == "" {
		return &ToolResult{Content: fmt.Sprintf("%s is not set", key)}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("%s = %s", key, value)}, nil
}

func (s *Server) handleSettingSet(ctx context.Context, args map[string]any) (*ToolResult, error) {
	key, _ := args["key"].(string)
	if key == "" {
		return errorResult("key is required"), nil
	}
	value, _ := args["value"].(string)

	if value == "" {
		if err := s.client.RemoveSetting(ctx, key); err != nil {
			return errorResult("remove setting failed: %v", err), nil
		}
		return &ToolResult{Content: fmt.Sprintf("Removed %s", key)}, nil
	}
	if err := s.client.SetSetting(ctx, key, value); err != nil {
		return errorResult("write setting failed: %v", err), nil
	}
	return &ToolResult{Content: fmt.Sprintf("Set %s = %s", key, value)}, nil
}

// formatResolution describes a resolution pass for display.
func formatResolution(res vista.Resolution) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Outcome: %s\n", res.Outcome))
	if res.Removed != "" {
		sb.WriteString(fmt.Sprintf("Removed stale default: %s\n", res.Removed))
	}
	if res.DefaultID != "" {
		sb.WriteString(fmt.Sprintf("Default dataset: %s\n", res.DefaultID))
	}
	if redirect, ok := res.Action.(vista.RedirectAction); ok {
		sb.WriteString(fmt.Sprintf("No datasets exist. Create one at: %s\n", redirect.Target))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatDatasetList(datasets []vista.Dataset, defaultID, match string) string {
	if len(datasets) == 0 {
		if match != "" {
			return fmt.Sprintf("No datasets match %q.", match)
		}
		return "No datasets registered."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Datasets (%d):\n\n", len(datasets)))
	for _, ds := range datasets {
		marker := " "
		if ds.ID == defaultID {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s %s  %s", marker, ds.ID, ds.Title))
		if ds.TimeField != "" {
			sb.WriteString(fmt.Sprintf("  (time field: %s)", ds.TimeField))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func isNotFound(err error) bool {
	return errors.Is(err, vista.ErrWorkspaceNotFound) || errors.Is(err, vista.ErrDatasetNotFound)
}
