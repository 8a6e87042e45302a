package vista

import (
	"errors"
	"fmt"
)

// Common errors returned by the vista client and store.
var (
	// ErrDatasetNotFound is returned when a dataset ID is unknown.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrDatasetExists is returned when creating a dataset whose ID is taken.
	ErrDatasetExists = errors.New("dataset already exists")

	// ErrEmptyTitle is returned when a dataset or workspace has no title/name.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrWorkspaceNotFound is returned when a workspace record is unknown.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrInvalidPrivacy is returned for an unrecognised workspace privacy type.
	ErrInvalidPrivacy = errors.New("invalid workspace privacy type")

	// ErrInvalidDataSources is returned when a workspace's data source list fails validation.
	ErrInvalidDataSources = errors.New("invalid workspace data sources")

	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrUnsupportedExport is returned when an import document has an unknown version.
	ErrUnsupportedExport = errors.New("unsupported export version")
)

// ValidationError is returned when configuration validation fails.
// Extractable via errors.As().
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}
