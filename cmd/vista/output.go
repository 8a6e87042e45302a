package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hyperengineering/vista"
	"github.com/spf13/cobra"
)

// outputAsJSON writes any value as formatted JSON to the command's stdout.
func outputAsJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError prints an error to stderr, with field detail for validation errors.
func outputError(w io.Writer, err error) {
	var ve *vista.ValidationError
	if errors.As(err, &ve) {
		printError(w, "invalid configuration: %s: %s", ve.Field, ve.Message)
		return
	}
	printError(w, "Error: %s", err)
}

// ResolutionOutput for JSON output of ensure.
type ResolutionOutput struct {
	Outcome        vista.Outcome `json:"outcome"`
	DefaultDataset string        `json:"default_dataset,omitempty"`
	Removed        string        `json:"removed,omitempty"`
	RedirectTo     string        `json:"redirect_to,omitempty"`
}

func outputResolution(cmd *cobra.Command, res vista.Resolution) error {
	o := ResolutionOutput{
		Outcome:        res.Outcome,
		DefaultDataset: res.DefaultID,
		Removed:        res.Removed,
	}
	if redirect, ok := res.Action.(vista.RedirectAction); ok {
		o.RedirectTo = redirect.Target
	}
	if outputJSON {
		return outputAsJSON(cmd, o)
	}

	out := cmd.OutOrStdout()
	if o.Removed != "" {
		printWarning(out, "Removed stale default dataset %s", o.Removed)
	}
	switch res.Outcome {
	case vista.OutcomeDisabled:
		printMuted(out, "Settings updates are disabled; nothing checked.")
	case vista.OutcomeValid:
		printSuccess(out, "Default dataset %s is valid", o.DefaultDataset)
	case vista.OutcomeAssigned, vista.OutcomeReassigned:
		printSuccess(out, "Default dataset set to %s", o.DefaultDataset)
	case vista.OutcomeEnhanced:
		printInfo(out, "No datasets exist; query enhancements are enabled, nothing to do.")
	case vista.OutcomeRedirected:
		if o.RedirectTo != "" {
			printWarning(out, "No datasets exist. Create one at %s", o.RedirectTo)
		} else {
			printWarning(out, "No datasets exist.")
		}
	}
	return nil
}

func outputDatasets(cmd *cobra.Command, datasets []vista.Dataset, defaultID string) error {
	if outputJSON {
		type entry struct {
			vista.Dataset
			Default bool `json:"default"`
		}
		entries := make([]entry, len(datasets))
		for i, ds := range datasets {
			entries[i] = entry{Dataset: ds, Default: ds.ID == defaultID}
		}
		return outputAsJSON(cmd, map[string]any{"datasets": entries})
	}

	out := cmd.OutOrStdout()
	if len(datasets) == 0 {
		fmt.Fprintln(out, "No datasets registered.")
		printMuted(out, "(Tip: create one with 'vista dataset create <title>')")
		return nil
	}

	rows := make([][]string, 0, len(datasets))
	for _, ds := range datasets {
		marker := ""
		if ds.ID == defaultID {
			marker = "*"
		}
		rows = append(rows, []string{marker, ds.ID, ds.Title, ds.TimeField, formatAge(ds.CreatedAt)})
	}
	fmt.Fprintln(out, renderTable([]string{"", "ID", "TITLE", "TIME FIELD", "CREATED"}, rows))
	return nil
}

func outputWorkspace(cmd *cobra.Command, ws *vista.Workspace) error {
	if outputJSON {
		return outputAsJSON(cmd, ws)
	}

	out := cmd.OutOrStdout()
	pc := ws.Privacy.Copy()
	printField(out, "ID", ws.ID)
	printField(out, "Name", ws.Name)
	if ws.Description != "" {
		printField(out, "Description", ws.Description)
	}
	printField(out, "Privacy", fmt.Sprintf("%s (%s)", pc.Title, ws.Privacy))
	printMuted(out, "  %s", pc.Description)
	printField(out, "Updated", formatAge(ws.UpdatedAt))

	fmt.Fprintln(out)
	if len(ws.DataSources) == 0 {
		printMuted(out, "No data sources assigned.")
		return nil
	}
	rows := make([][]string, 0, len(ws.DataSources))
	for _, ds := range ws.DataSources {
		rows = append(rows, []string{ds.ID, ds.Title, ds.EngineType, ds.Description})
	}
	fmt.Fprintln(out, renderTable([]string{"ID", "TITLE", "ENGINE", "DESCRIPTION"}, rows))
	return nil
}

func outputWorkspaces(cmd *cobra.Command, list []vista.Workspace) error {
	if outputJSON {
		return outputAsJSON(cmd, map[string]any{"workspaces": list})
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No workspaces found.")
		return nil
	}
	rows := make([][]string, 0, len(list))
	for _, ws := range list {
		rows = append(rows, []string{ws.ID, ws.Name, string(ws.Privacy), fmt.Sprint(len(ws.DataSources)), formatAge(ws.UpdatedAt)})
	}
	fmt.Fprintln(out, renderTable([]string{"ID", "NAME", "PRIVACY", "SOURCES", "UPDATED"}, rows))
	return nil
}

// formatAge formats a timestamp relative to now (e.g. "2h ago").
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
