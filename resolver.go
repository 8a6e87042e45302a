package vista

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/hyperengineering/vista/internal/logging"
)

// Permission is a three-state flag. PermissionUnset behaves as PermissionAllowed.
type Permission int

const (
	PermissionUnset Permission = iota
	PermissionAllowed
	PermissionDenied
)

// Allowed reports whether p permits settings writes.
func (p Permission) Allowed() bool { return p != PermissionDenied }

func (p Permission) String() string {
	switch p {
	case PermissionAllowed:
		return "allowed"
	case PermissionDenied:
		return "denied"
	default:
		return "unset"
	}
}

// ParsePermission maps "" to PermissionUnset and boolean strings to allowed/denied.
func ParsePermission(s string) (Permission, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PermissionUnset, nil
	case "true", "1", "yes", "allowed":
		return PermissionAllowed, nil
	case "false", "0", "no", "denied":
		return PermissionDenied, nil
	}
	return PermissionUnset, fmt.Errorf("invalid permission %q", s)
}

// Action is what the caller should do after resolution: NoAction or RedirectAction.
type Action interface {
	isAction()
}

// NoAction means nothing further is required.
type NoAction struct{}

// RedirectAction asks the caller to send the user to Target, typically a
// "create your first dataset" page.
type RedirectAction struct {
	Target string `json:"target"`
}

func (NoAction) isAction() {}
func (RedirectAction) isAction() {}

// NoDatasetsHandler is called when no dataset exists and enhanced query mode is off.
type NoDatasetsHandler func(ctx context.Context) (Action, error)

// Outcome names the branch a resolution pass took.
type Outcome string

const (
	// OutcomeDisabled: settings updates are denied, nothing was read or written.
	OutcomeDisabled Outcome = "disabled"
	// OutcomeValid: the configured default exists, nothing was written.
	OutcomeValid Outcome = "valid"
	// OutcomeAssigned: no default was set; the first dataset was assigned.
	OutcomeAssigned Outcome = "assigned"
	// OutcomeReassigned: a stale default was removed and the first dataset assigned.
	OutcomeReassigned Outcome = "reassigned"
	// OutcomeRedirected: no datasets exist and the no-datasets handler ran.
	OutcomeRedirected Outcome = "redirected"
	// OutcomeEnhanced: no datasets exist but enhanced query mode handles that itself.
	OutcomeEnhanced Outcome = "enhanced"
)

// Resolution reports what a pass of DefaultDatasetResolver.Ensure did.
type Resolution struct {
	Outcome Outcome `json:"outcome"`
	// DefaultID is the default dataset after the pass, "" when none.
	DefaultID string `json:"default_id,omitempty"`
	// Removed is the stale default that was cleared, if any.
	Removed string `json:"removed,omitempty"`
	// Action is the handler's result for OutcomeRedirected, NoAction otherwise.
	Action Action `json:"-"`
}

// ResolverConfig supplies the collaborators of a DefaultDatasetResolver.
type ResolverConfig struct {
	Settings          SettingsStore
	Datasets          DatasetRegistry
	OnNoDatasets      NoDatasetsHandler
	CanUpdateSettings Permission
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// DefaultDatasetResolver keeps the default dataset setting pointing at a
// dataset that exists. It holds no state of its own.
//
// Concurrent passes against the same store are not coordinated; the store's
// last write wins, and every candidate value is an existing dataset.
type DefaultDatasetResolver struct {
	settings     SettingsStore
	datasets     DatasetRegistry
	onNoDatasets NoDatasetsHandler
	canUpdate    Permission
	logger       *slog.Logger
}

// NewDefaultDatasetResolver validates cfg and returns a resolver.
func NewDefaultDatasetResolver(cfg ResolverConfig) (*DefaultDatasetResolver, error) {
	if cfg.Settings == nil {
		return nil, &ValidationError{Field: "Settings", Message: "required"}
	}
	if cfg.Datasets == nil {
		return nil, &ValidationError{Field: "Datasets", Message: "required"}
	}
	if cfg.OnNoDatasets == nil {
		return nil, &ValidationError{Field: "OnNoDatasets", Message: "required"}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &DefaultDatasetResolver{
		settings:     cfg.Settings,
		datasets:     cfg.Datasets,
		onNoDatasets: cfg.OnNoDatasets,
		canUpdate:    cfg.CanUpdateSettings,
		logger:       logger,
	}, nil
}

// Ensure checks the default dataset setting and repairs it if needed.
//
// Errors from the settings store, the registry, or the no-datasets handler are
// returned as-is. A failed Remove ends the pass, leaving the stale value for
// the next attempt.
func (r *DefaultDatasetResolver) Ensure(ctx context.Context) (Resolution, error) {
	if !r.canUpdate.Allowed() {
		return r.done(ctx, Resolution{Outcome: OutcomeDisabled, Action: NoAction{}}), nil
	}

	ids, err := r.datasets.DatasetIDs(ctx)
	if err != nil {
		return Resolution{}, r.fail(ctx, "read_datasets", err)
	}
	current, err := r.settings.Get(ctx, SettingDefaultDataset)
	if err != nil {
		return Resolution{}, r.fail(ctx, "read_default", err)
	}

	res := Resolution{Action: NoAction{}}

	if current != "" && !slices.Contains(ids, current) {
		if err := r.settings.Remove(ctx, SettingDefaultDataset); err != nil {
			return Resolution{}, r.fail(ctx, "remove", err)
		}
		res.Removed = current
		current = ""
	}

	if current != "" {
		res.Outcome = OutcomeValid
		res.DefaultID = current
		return r.done(ctx, res), nil
	}

	if len(ids) > 0 {
		if err := r.settings.Set(ctx, SettingDefaultDataset, ids[0]); err != nil {
			return Resolution{}, r.fail(ctx, "set", err)
		}
		res.Outcome = OutcomeAssigned
		if res.Removed != "" {
			res.Outcome = OutcomeReassigned
		}
		res.DefaultID = ids[0]
		return r.done(ctx, res), nil
	}

	enhanced, err := r.settings.Get(ctx, SettingQueryEnhancement)
	if err != nil {
		return Resolution{}, r.fail(ctx, "read_enhancements", err)
	}
	if Truthy(enhanced) {
		res.Outcome = OutcomeEnhanced
		return r.done(ctx, res), nil
	}

	action, err := r.onNoDatasets(ctx)
	if err != nil {
		return Resolution{}, r.fail(ctx, "no_datasets_handler", err)
	}
	if action == nil {
		action = NoAction{}
	}
	res.Outcome = OutcomeRedirected
	res.Action = action
	return r.done(ctx, res), nil
}

func (r *DefaultDatasetResolver) done(ctx context.Context, res Resolution) Resolution {
	resolutionsTotal.WithLabelValues(string(res.Outcome)).Inc()

	level := slog.LevelDebug
	if res.Outcome != OutcomeValid && res.Outcome != OutcomeDisabled {
		level = slog.LevelInfo
	}
	r.logger.Log(ctx, level, "default dataset resolved",
		"outcome", res.Outcome,
		"default_id", res.DefaultID,
		"removed", res.Removed,
	)
	return res
}

func (r *DefaultDatasetResolver) fail(ctx context.Context, stage string, err error) error {
	resolutionErrorsTotal.WithLabelValues(stage).Inc()
	if !errors.Is(err, context.Canceled) {
		logging.Error(ctx, r.logger.With("stage", stage), "default dataset resolution failed", err)
	}
	return err
}
