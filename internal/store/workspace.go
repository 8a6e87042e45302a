// Package store locates and names the per-workspace settings databases.
package store

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// DefaultWorkspace is the workspace used when none is configured.
const DefaultWorkspace = "default"

// WorkspaceEnv names the environment variable consulted by ResolveWorkspace.
const WorkspaceEnv = "VISTA_WORKSPACE"

// ErrInvalidWorkspaceID indicates the workspace ID format is invalid.
var ErrInvalidWorkspaceID = errors.New("invalid workspace ID: must be lowercase alphanumeric with hyphens, 1-3 path segments")

// Segments are 1-64 chars of [a-z0-9-] without leading or trailing hyphens.
// Up to three segments separated by "/" (e.g. "team/ops/logs").
var workspaceIDRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,62}[a-z0-9])?(\/[a-z0-9]([a-z0-9-]{0,62}[a-z0-9])?){0,2}$`)

// ValidateWorkspaceID reports whether id is usable as a workspace ID.
func ValidateWorkspaceID(id string) error {
	if id == "" || len(id) > 194 {
		return ErrInvalidWorkspaceID
	}
	if strings.Contains(id, "--") || !workspaceIDRegex.MatchString(id) {
		return ErrInvalidWorkspaceID
	}
	return nil
}

// ResolveWorkspace picks the workspace ID: explicit, then VISTA_WORKSPACE, then "default".
func ResolveWorkspace(explicit string) (string, error) {
	if explicit != "" {
		if err := ValidateWorkspaceID(explicit); err != nil {
			return "", fmt.Errorf("invalid workspace %q: %w", explicit, err)
		}
		return explicit, nil
	}

	if env := os.Getenv(WorkspaceEnv); env != "" {
		if err := ValidateWorkspaceID(env); err != nil {
			return "", fmt.Errorf("invalid %s %q: %w", WorkspaceEnv, env, err)
		}
		return env, nil
	}

	return DefaultWorkspace, nil
}
