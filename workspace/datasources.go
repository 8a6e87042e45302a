package workspace

import (
	"fmt"
	"slices"
)

// ConnectionType distinguishes the two kinds of connection a user can pick.
type ConnectionType string

const (
	ConnectionOpenSearch  ConnectionType = "opensearch-connection"
	ConnectionDirectQuery ConnectionType = "direct-query-connection"
)

// DataSource is a data source assigned to a workspace.
type DataSource struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	EngineType  string `json:"engine_type,omitempty"`
}

// DataSourceConnection is a connection offered for assignment.
type DataSourceConnection struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           string         `json:"type,omitempty"`
	Description    string         `json:"description,omitempty"`
	ConnectionType ConnectionType `json:"connection_type"`
}

// Assign appends the OpenSearch connections among picked to assigned.
// Direct query connections are not stored as data sources and are skipped.
// The input slice is not modified.
func Assign(assigned []DataSource, picked []DataSourceConnection) []DataSource {
	out := slices.Clone(assigned)
	for _, c := range picked {
		if c.ConnectionType != ConnectionOpenSearch {
			continue
		}
		out = append(out, DataSource{
			ID:          c.ID,
			Title:       c.Name,
			Description: c.Description,
			EngineType:  c.Type,
		})
	}
	return out
}

// Unassign drops every assigned data source whose ID appears in picked.
func Unassign(assigned []DataSource, picked []DataSourceConnection) []DataSource {
	drop := make(map[string]struct{}, len(picked))
	for _, c := range picked {
		drop[c.ID] = struct{}{}
	}

	out := make([]DataSource, 0, len(assigned))
	for _, ds := range assigned {
		if _, ok := drop[ds.ID]; ok {
			continue
		}
		out = append(out, ds)
	}
	return out
}

// UnassignIDs is Unassign keyed by plain IDs.
func UnassignIDs(assigned []DataSource, ids []string) []DataSource {
	picked := make([]DataSourceConnection, len(ids))
	for i, id := range ids {
		picked[i] = DataSourceConnection{ID: id}
	}
	return Unassign(assigned, picked)
}

// PanelAction is a control offered by the data source panel.
type PanelAction string

const (
	ActionRemoveSelected PanelAction = "remove-selected"
	ActionAddOpenSearch  PanelAction = "add-opensearch-connections"
	ActionAddDirectQuery PanelAction = "add-direct-query-connections"
)

// PanelActions returns the actions available, in display order.
// Only dashboard admins may change assignments; removal additionally needs a
// selection and something assigned to remove.
func PanelActions(isDashboardAdmin bool, selected, assigned int) []PanelAction {
	if !isDashboardAdmin {
		return nil
	}
	var actions []PanelAction
	if selected > 0 && assigned > 0 {
		actions = append(actions, ActionRemoveSelected)
	}
	return append(actions, ActionAddOpenSearch, ActionAddDirectQuery)
}

// FormErrorCode classifies a FormError.
type FormErrorCode string

const (
	ErrorDataSourceMissingID FormErrorCode = "data-source-missing-id"
	ErrorDuplicateDataSource FormErrorCode = "duplicate-data-source"
)

// FormError describes a problem with one entry of the form.
type FormError struct {
	Code    FormErrorCode `json:"code"`
	Message string        `json:"message"`
}

// ValidateDataSources returns the problems keyed by index into sources.
// A nil map means the list is valid.
func ValidateDataSources(sources []DataSource) map[int]FormError {
	var errs map[int]FormError
	add := func(i int, fe FormError) {
		if errs == nil {
			errs = make(map[int]FormError)
		}
		errs[i] = fe
	}

	seen := make(map[string]int, len(sources))
	for i, ds := range sources {
		if ds.ID == "" {
			add(i, FormError{Code: ErrorDataSourceMissingID, Message: "Data source is missing an ID."})
			continue
		}
		if first, ok := seen[ds.ID]; ok {
			add(i, FormError{Code: ErrorDuplicateDataSource, Message: fmt.Sprintf("Duplicate data source, already assigned at position %d.", first)})
			continue
		}
		seen[ds.ID] = i
	}
	return errs
}
