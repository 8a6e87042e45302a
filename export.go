package vista

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/samber/oops"
)

// ExportVersion is the current version of the export format.
const ExportVersion = "1.0"

// ExportFormat is the top-level structure of a JSON export.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Workspace  string            `json:"workspace"`
	Metadata   ExportMetadata    `json:"metadata"`
	Settings   map[string]string `json:"settings"`
	Datasets   []Dataset         `json:"datasets"`
	Workspaces []Workspace       `json:"workspaces"`
}

// ExportMetadata contains store metadata in exports.
type ExportMetadata struct {
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// MergeStrategy defines how to handle entries that already exist during import.
type MergeStrategy string

const (
	// MergeStrategySkip keeps existing entries untouched.
	MergeStrategySkip MergeStrategy = "skip"
	// MergeStrategyReplace overwrites existing entries with the imported ones.
	MergeStrategyReplace MergeStrategy = "replace"
	// MergeStrategyMerge fills blanks in existing entries and unions workspace data sources (default).
	MergeStrategyMerge MergeStrategy = "merge"
)

// ParseMergeStrategy validates a strategy name; "" means merge.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch MergeStrategy(s) {
	case "":
		return MergeStrategyMerge, nil
	case MergeStrategySkip, MergeStrategyReplace, MergeStrategyMerge:
		return MergeStrategy(s), nil
	}
	return "", fmt.Errorf("invalid merge strategy %q: must be skip, replace or merge", s)
}

// ImportResult summarizes an import operation.
type ImportResult struct {
	Total   int      `json:"total"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	DryRun  bool     `json:"dry_run,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Snapshot collects everything an export contains.
func (s *Store) Snapshot(ctx context.Context, workspaceID string) (*ExportFormat, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	datasets, err := s.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}
	workspaces, err := s.ListWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	desc, err := s.GetMetadata(metadataKeyDescription)
	if err != nil {
		return nil, err
	}
	createdAtStr, err := s.GetMetadata(metadataKeyCreatedAt)
	if err != nil {
		return nil, err
	}
	var createdAt time.Time
	if createdAtStr != "" {
		if createdAt, err = parseTimestamp("metadata.created_at", createdAtStr); err != nil {
			return nil, oops.Code("EXPORT_FAILED").Wrap(err)
		}
	}

	if datasets == nil {
		datasets = []Dataset{}
	}
	if workspaces == nil {
		workspaces = []Workspace{}
	}

	return &ExportFormat{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Workspace:  workspaceID,
		Metadata:   ExportMetadata{Description: desc, CreatedAt: createdAt},
		Settings:   settings,
		Datasets:   datasets,
		Workspaces: workspaces,
	}, nil
}

// ExportJSON writes a snapshot of the store as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, workspaceID string, w io.Writer) error {
	snap, err := s.Snapshot(ctx, workspaceID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// Export writes the client's workspace as JSON.
func (c *Client) Export(ctx context.Context, w io.Writer) error {
	return c.store.ExportJSON(ctx, c.config.Workspace, w)
}

// Import reads a JSON export into the client's workspace.
func (c *Client) Import(ctx context.Context, r io.Reader, strategy MergeStrategy, dryRun bool) (*ImportResult, error) {
	return c.store.ImportJSON(ctx, r, strategy, dryRun)
}
