package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperengineering/vista"
	"github.com/hyperengineering/vista/workspace"
)

// handleWorkspaceShow handles the vista_workspace_show tool call.
func (s *Server) handleWorkspaceShow(ctx context.Context, args map[string]any) (*ToolResult, error) {
	id, _ := args["id"].(string)
	if id == "" {
		list, err := s.client.ListWorkspaces(ctx)
		if err != nil {
			return errorResult("list workspaces failed: %v", err), nil
		}
		return &ToolResult{Content: formatWorkspaceList(list)}, nil
	}

	ws, err := s.client.GetWorkspace(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return errorResult("Workspace not found: %q\nCall vista_workspace_show without an id to list workspaces.", id), nil
		}
		return errorResult("get workspace failed: %v", err), nil
	}
	return &ToolResult{Content: formatWorkspace(ws)}, nil
}

// handleWorkspacePrivacy handles the vista_workspace_privacy tool call.
func (s *Server) handleWorkspacePrivacy(ctx context.Context, args map[string]any) (*ToolResult, error) {
	id, _ := args["id"].(string)
	if id == "" {
		return errorResult("id is required"), nil
	}
	raw, _ := args["privacy"].(string)
	privacy, err := workspace.ParsePrivacyType(raw)
	if err != nil {
		return errorResult("Invalid privacy %q. Valid options: %s", raw, privacyChoices()), nil
	}

	ws, err := s.client.SetWorkspacePrivacy(ctx, id, privacy)
	if err != nil {
		if isNotFound(err) {
			return errorResult("Workspace not found: %q", id), nil
		}
		return errorResult("update privacy failed: %v", err), nil
	}
	pc := ws.Privacy.Copy()
	return &ToolResult{Content: fmt.Sprintf("Workspace %s is now %q: %s", ws.ID, pc.Title, pc.Description)}, nil
}

func privacyChoices() string {
	opts := workspace.PrivacyOptions()
	names := make([]string, len(opts))
	for i, p := range opts {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func formatWorkspaceList(list []vista.Workspace) string {
	if len(list) == 0 {
		return "No workspaces found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Workspaces (%d):\n\n", len(list)))
	for _, ws := range list {
		sb.WriteString(fmt.Sprintf("  %s  %s\n", ws.ID, ws.Name))
		sb.WriteString(fmt.Sprintf("    Privacy: %s | Data sources: %d | Updated: %s\n\n",
			ws.Privacy, len(ws.DataSources), formatRelativeTime(ws.UpdatedAt)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatWorkspace(ws *vista.Workspace) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Workspace: %s\n", ws.Name))
	sb.WriteString(fmt.Sprintf("ID: %s\n", ws.ID))
	if ws.Description != "" {
		sb.WriteString(fmt.Sprintf("Description: %s\n", ws.Description))
	}
	pc := ws.Privacy.Copy()
	sb.WriteString(fmt.Sprintf("Privacy: %s (%s)\n", pc.Title, ws.Privacy))
	sb.WriteString(fmt.Sprintf("Created: %s\n", ws.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	sb.WriteString(fmt.Sprintf("Updated: %s\n", ws.UpdatedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	sb.WriteString("\n")

	if len(ws.DataSources) == 0 {
		sb.WriteString("No data sources assigned.")
		return sb.String()
	}
	sb.WriteString("Data sources:\n")
	for _, ds := range ws.DataSources {
		sb.WriteString(fmt.Sprintf("  %-24s %s", ds.ID, ds.Title))
		if ds.EngineType != "" {
			sb.WriteString(fmt.Sprintf(" [%s]", ds.EngineType))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatRelativeTime formats a timestamp as relative time (e.g., "2h ago").
func formatRelativeTime(t time.Time) string {
	duration := time.Since(t)
	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return fmt.Sprintf("%dm ago", int(duration.Minutes()))
	case duration < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(duration.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(duration.Hours()/24))
	}
}
