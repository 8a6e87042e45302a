package vista

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperengineering/vista/workspace"
	"github.com/samber/oops"
)

// ImportJSON applies an export document to the store in one transaction.
// With dryRun the transaction is rolled back and only the counts are reported.
func (s *Store) ImportJSON(ctx context.Context, r io.Reader, strategy MergeStrategy, dryRun bool) (*ImportResult, error) {
	var doc ExportFormat
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	if !strings.HasPrefix(doc.Version, "1.") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExport, doc.Version)
	}
	if strategy == "" {
		strategy = MergeStrategyMerge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	existing, err := s.loadImportState(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, oops.Code("IMPORT_FAILED").Wrap(err)
	}
	defer tx.Rollback() // no-op if committed

	result := &ImportResult{DryRun: dryRun}
	now := time.Now().UTC().Format(time.RFC3339)

	for key, value := range doc.Settings {
		result.Total++
		cur, ok := existing.settings[key]
		switch {
		case ok && (strategy == MergeStrategySkip || cur == value):
			result.Skipped++
			continue
		case ok && strategy == MergeStrategyMerge && cur != "":
			result.Skipped++
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value, now); err != nil {
			return nil, oops.Code("IMPORT_FAILED").With("key", key).Wrap(err)
		}
		if ok {
			result.Updated++
		} else {
			result.Created++
		}
	}

	for _, ds := range doc.Datasets {
		result.Total++
		if ds.ID == "" || strings.TrimSpace(ds.Title) == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("dataset %q: id and title are required", ds.ID))
			continue
		}
		cur, ok := existing.datasets[ds.ID]
		if !ok {
			if ds.CreatedAt.IsZero() {
				ds.CreatedAt = time.Now().UTC()
			}
			if err := s.insertDataset(ctx, tx, ds); err != nil {
				return nil, err
			}
			existing.datasets[ds.ID] = ds
			result.Created++
			continue
		}
		if strategy == MergeStrategySkip {
			result.Skipped++
			continue
		}
		next := ds
		if strategy == MergeStrategyMerge {
			next = cur
			if next.TimeField == "" {
				next.TimeField = ds.TimeField
			}
		}
		if next.Title == cur.Title && next.TimeField == cur.TimeField {
			result.Skipped++
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE datasets SET title = ?, time_field = ? WHERE id = ?`,
			next.Title, nullString(next.TimeField), next.ID); err != nil {
			return nil, oops.Code("IMPORT_FAILED").With("dataset_id", ds.ID).Wrap(err)
		}
		existing.datasets[ds.ID] = next
		result.Updated++
	}

	if desc := strings.TrimSpace(doc.Metadata.Description); desc != "" && desc != existing.description {
		if existing.description == "" || strategy == MergeStrategyReplace {
			if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`,
				metadataKeyDescription, desc); err != nil {
				return nil, oops.Code("IMPORT_FAILED").With("key", metadataKeyDescription).Wrap(err)
			}
		}
	}

	for _, ws := range doc.Workspaces {
		result.Total++
		if ws.ID == "" || strings.TrimSpace(ws.Name) == "" || !ws.Privacy.IsValid() {
			result.Errors = append(result.Errors, fmt.Sprintf("workspace %q: id, name and a valid privacy are required", ws.ID))
			continue
		}
		cur, ok := existing.workspaces[ws.ID]
		if ok && strategy == MergeStrategySkip {
			result.Skipped++
			continue
		}
		next := ws
		if ok && strategy == MergeStrategyMerge {
			next = cur
			next.DataSources = mergeDataSources(cur.DataSources, ws.DataSources)
			next.UpdatedAt = time.Now().UTC()
		}
		if errs := workspace.ValidateDataSources(next.DataSources); len(errs) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("workspace %q: invalid data sources", ws.ID))
			continue
		}
		if err := saveWorkspace(ctx, tx, next); err != nil {
			return nil, err
		}
		if ok {
			result.Updated++
		} else {
			result.Created++
		}
	}

	if dryRun {
		return result, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, oops.Code("IMPORT_FAILED").Wrap(err)
	}
	return result, nil
}

type importState struct {
	description string
	settings    map[string]string
	datasets    map[string]Dataset
	workspaces  map[string]Workspace
}

// loadImportState reads current contents; the caller holds s.mu.
func (s *Store) loadImportState(ctx context.Context) (*importState, error) {
	st := &importState{
		settings:   map[string]string{},
		datasets:   map[string]Dataset{},
		workspaces: map[string]Workspace{},
	}

	desc, err := s.getMetadata(metadataKeyDescription)
	if err != nil {
		return nil, err
	}
	st.description = desc

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, oops.Code("IMPORT_FAILED").Wrap(err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return nil, oops.Code("IMPORT_FAILED").Wrap(err)
		}
		st.settings[k] = v
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT id, title, time_field, created_at FROM datasets`)
	if err != nil {
		return nil, oops.Code("IMPORT_FAILED").Wrap(err)
	}
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			rows.Close()
			return nil, oops.Code("IMPORT_FAILED").Wrap(err)
		}
		st.datasets[ds.ID] = *ds
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT id FROM workspaces`)
	if err != nil {
		return nil, oops.Code("IMPORT_FAILED").Wrap(err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, oops.Code("IMPORT_FAILED").Wrap(err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	for _, id := range ids {
		ws, err := s.getWorkspace(ctx, id)
		if err != nil {
			return nil, err
		}
		st.workspaces[id] = *ws
	}

	return st, nil
}

// mergeDataSources appends the incoming sources not already present.
func mergeDataSources(cur, incoming []workspace.DataSource) []workspace.DataSource {
	seen := make(map[string]struct{}, len(cur))
	out := make([]workspace.DataSource, 0, len(cur)+len(incoming))
	for _, ds := range cur {
		seen[ds.ID] = struct{}{}
		out = append(out, ds)
	}
	for _, ds := range incoming {
		if _, ok := seen[ds.ID]; ok {
			continue
		}
		seen[ds.ID] = struct{}{}
		out = append(out, ds)
	}
	return out
}
