// Package workspace holds the rules behind the workspace create/edit form:
// privacy options and the assignment of data sources to a workspace.
package workspace

import (
	"fmt"
	"strings"
)

// PrivacyType controls who besides collaborators can see a workspace.
type PrivacyType string

const (
	PrivacyPrivateToCollaborators PrivacyType = "private-to-collaborators"
	PrivacyAnyoneCanView          PrivacyType = "anyone-can-view"
	PrivacyAnyoneCanEdit          PrivacyType = "anyone-can-edit"
)

// DefaultPrivacy is used for new workspaces.
const DefaultPrivacy = PrivacyPrivateToCollaborators

// PrivacyCopy is the title and description shown for a privacy option.
type PrivacyCopy struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var privacyCopy = map[PrivacyType]PrivacyCopy{
	PrivacyPrivateToCollaborators: {
		Title:       "Private to collaborators",
		Description: "Only workspace collaborators can access the workspace.",
	},
	PrivacyAnyoneCanView: {
		Title:       "Anyone can view",
		Description: "Anyone can view workspace assets.",
	},
	PrivacyAnyoneCanEdit: {
		Title:       "Anyone can edit",
		Description: "Anyone can view and edit workspace assets.",
	},
}

// PrivacyOptions returns the privacy types in display order.
func PrivacyOptions() []PrivacyType {
	return []PrivacyType{
		PrivacyPrivateToCollaborators,
		PrivacyAnyoneCanView,
		PrivacyAnyoneCanEdit,
	}
}

// IsValid reports whether p is one of PrivacyOptions.
func (p PrivacyType) IsValid() bool {
	_, ok := privacyCopy[p]
	return ok
}

// Copy returns the title and description for p. Unknown types get an empty copy.
func (p PrivacyType) Copy() PrivacyCopy {
	return privacyCopy[p]
}

// ParsePrivacyType accepts the canonical value, case-insensitively, with
// underscores or spaces in place of hyphens.
func ParsePrivacyType(s string) (PrivacyType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	p := PrivacyType(norm)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown privacy type %q", s)
	}
	return p, nil
}
