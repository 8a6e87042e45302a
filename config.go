package vista

import (
	"os"
	"strings"

	"github.com/hyperengineering/vista/internal/store"
)

// DefaultRedirectTarget is where callers are sent when no dataset exists.
const DefaultRedirectTarget = "/app/management/datasets/create"

// Config configures the vista client.
type Config struct {
	// LocalPath is the path to the workspace's SQLite database.
	// If empty, it is derived from Workspace.
	LocalPath string `koanf:"db_path"`

	// Workspace selects the workspace database.
	// If empty, resolved as explicit > VISTA_WORKSPACE > "default".
	Workspace string `koanf:"workspace"`

	// CanUpdateSettings gates every settings write made by the default
	// dataset resolver. Unset behaves as allowed.
	CanUpdateSettings Permission `koanf:"-"`

	// RedirectTarget is returned in a RedirectAction when no dataset exists.
	RedirectTarget string `koanf:"redirect_target"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `koanf:"log_level"`
}

// DefaultConfig returns a Config for the default workspace.
func DefaultConfig() Config {
	return Config{
		Workspace:      store.DefaultWorkspace,
		LocalPath:      store.DatabasePath("", store.DefaultWorkspace),
		RedirectTarget: DefaultRedirectTarget,
		LogFormat:      "text",
		LogLevel:       "info",
	}
}

// ConfigFromEnv reads configuration from environment variables.
//
//	VISTA_DB_PATH              → LocalPath
//	VISTA_WORKSPACE            → Workspace
//	VISTA_CAN_UPDATE_SETTINGS  → CanUpdateSettings (true/false; unrecognised values deny)
//	VISTA_REDIRECT_TARGET      → RedirectTarget
//	VISTA_LOG_FORMAT           → LogFormat
//	VISTA_LOG_LEVEL            → LogLevel
func ConfigFromEnv() Config {
	perm, err := ParsePermission(os.Getenv("VISTA_CAN_UPDATE_SETTINGS"))
	if err != nil {
		perm = PermissionDenied
	}
	return Config{
		LocalPath:         os.Getenv("VISTA_DB_PATH"),
		Workspace:         os.Getenv(store.WorkspaceEnv),
		CanUpdateSettings: perm,
		RedirectTarget:    os.Getenv("VISTA_REDIRECT_TARGET"),
		LogFormat:         os.Getenv("VISTA_LOG_FORMAT"),
		LogLevel:          os.Getenv("VISTA_LOG_LEVEL"),
	}
}

// Validate checks the configuration for errors.
// Returns *ValidationError for invalid fields.
func (c *Config) Validate() error {
	if c.LocalPath == "" {
		return &ValidationError{Field: "LocalPath", Message: "required: path to SQLite database"}
	}

	if c.Workspace != "" {
		if err := store.ValidateWorkspaceID(c.Workspace); err != nil {
			return &ValidationError{Field: "Workspace", Message: err.Error()}
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "json", "text":
	default:
		return &ValidationError{Field: "LogFormat", Message: "must be json or text"}
	}

	if c.CanUpdateSettings < PermissionUnset || c.CanUpdateSettings > PermissionDenied {
		return &ValidationError{Field: "CanUpdateSettings", Message: "unknown permission value"}
	}

	return nil
}

// WithDefaults fills in unset fields. The workspace is resolved first so that
// LocalPath can be derived from it.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.Workspace == "" {
		resolved, err := store.ResolveWorkspace("")
		if err != nil {
			resolved = store.DefaultWorkspace
		}
		c.Workspace = resolved
	}
	if c.LocalPath == "" {
		c.LocalPath = store.DatabasePath("", c.Workspace)
	}
	if c.RedirectTarget == "" {
		c.RedirectTarget = defaults.RedirectTarget
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}

	return c
}

// Merge returns c with every non-zero field of o applied on top.
func (c Config) Merge(o Config) Config {
	if o.LocalPath != "" {
		c.LocalPath = o.LocalPath
	}
	if o.Workspace != "" {
		c.Workspace = o.Workspace
	}
	if o.CanUpdateSettings != PermissionUnset {
		c.CanUpdateSettings = o.CanUpdateSettings
	}
	if o.RedirectTarget != "" {
		c.RedirectTarget = o.RedirectTarget
	}
	if o.LogFormat != "" {
		c.LogFormat = o.LogFormat
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	return c
}
