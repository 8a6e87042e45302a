package store

import (
	"os"
	"path/filepath"
	"strings"
)

// DatabaseFile is the file name of a workspace's settings database.
const DatabaseFile = "settings.db"

// Root returns the directory holding all workspace databases.
// Defaults to ~/.vista/workspaces and falls back to ./.vista/workspaces without a home dir.
func Root() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, ".vista", "workspaces")
	}
	return filepath.Join(home, ".vista", "workspaces")
}

// EncodeWorkspaceID maps a workspace ID onto a single directory name ("a/b" -> "a__b").
func EncodeWorkspaceID(id string) string {
	return strings.ReplaceAll(id, "/", "__")
}

// DecodeWorkspaceID reverses EncodeWorkspaceID.
func DecodeWorkspaceID(encoded string) string {
	return strings.ReplaceAll(encoded, "__", "/")
}

// DatabasePath returns the settings database path for a workspace under root.
// An empty root means Root().
func DatabasePath(root, id string) string {
	if root == "" {
		root = Root()
	}
	return filepath.Join(root, EncodeWorkspaceID(id), DatabaseFile)
}

// ListWorkspaces returns the IDs of workspaces that have a database under root.
func ListWorkspaces(root string) ([]string, error) {
	if root == "" {
		root = Root()
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), DatabaseFile)); err != nil {
			continue
		}
		ids = append(ids, DecodeWorkspaceID(e.Name()))
	}
	return ids, nil
}
