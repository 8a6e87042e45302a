package vista

import (
	"time"

	"github.com/hyperengineering/vista/workspace"
)

// Dataset is a selectable dataset, identified by an opaque ID.
type Dataset struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	TimeField string    `json:"time_field,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Workspace is the persisted result of the workspace form.
type Workspace struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Privacy     workspace.PrivacyType  `json:"privacy"`
	DataSources []workspace.DataSource `json:"data_sources"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// WorkspaceParams holds the form fields for creating a workspace.
type WorkspaceParams struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Privacy     workspace.PrivacyType  `json:"privacy,omitempty"`
	DataSources []workspace.DataSource `json:"data_sources,omitempty"`
}

// StoreStats contains statistics about the local store.
type StoreStats struct {
	DatasetCount   int    `json:"dataset_count"`
	SettingCount   int    `json:"setting_count"`
	WorkspaceCount int    `json:"workspace_count"`
	DefaultDataset string `json:"default_dataset,omitempty"`
	SchemaVersion  string `json:"schema_version"`
}

// HealthStatus represents the health of the client.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	StoreOK bool   `json:"store_ok"`
	Error   string `json:"error,omitempty"`
}
