package vista

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/hyperengineering/vista/internal/logging"
	"github.com/hyperengineering/vista/workspace"
	"github.com/oklog/ulid/v2"
)

// Client is the main entry point: it owns a workspace store and the default
// dataset resolver bound to it.
type Client struct {
	store    *Store
	resolver *DefaultDatasetResolver
	config   Config
	logger   *slog.Logger
}

// Option customises New.
type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for cfg, opening (and migrating) the workspace store.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{config: cfg, logger: logging.Discard()}
	for _, opt := range opts {
		opt(c)
	}

	st, err := NewStore(cfg.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	c.store = st

	target := cfg.RedirectTarget
	resolver, err := NewDefaultDatasetResolver(ResolverConfig{
		Settings: st,
		Datasets: st,
		OnNoDatasets: func(context.Context) (Action, error) {
			return RedirectAction{Target: target}, nil
		},
		CanUpdateSettings: cfg.CanUpdateSettings,
		Logger:            c.logger.With("workspace", cfg.Workspace),
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	c.resolver = resolver

	return c, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.config }

// Store exposes the underlying store.
func (c *Client) Store() *Store { return c.store }

// EnsureDefaultDataset runs one default dataset resolution pass.
func (c *Client) EnsureDefaultDataset(ctx context.Context) (Resolution, error) {
	return c.resolver.Ensure(ctx)
}

// DefaultDataset returns the configured default dataset, or nil when unset.
// It does not repair a stale value; use EnsureDefaultDataset for that.
func (c *Client) DefaultDataset(ctx context.Context) (*Dataset, error) {
	id, err := c.store.Get(ctx, SettingDefaultDataset)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	return c.store.GetDataset(ctx, id)
}

// CreateDataset registers a dataset.
func (c *Client) CreateDataset(ctx context.Context, title, timeField string) (*Dataset, error) {
	ds, err := c.store.CreateDataset(ctx, Dataset{Title: title, TimeField: timeField})
	if err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "dataset created", "dataset_id", ds.ID, "title", ds.Title)
	return ds, nil
}

// ListDatasets returns datasets in creation order. A non-empty match is a
// glob applied to titles (e.g. "logs-*").
func (c *Client) ListDatasets(ctx context.Context, match string) ([]Dataset, error) {
	all, err := c.store.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}
	if match == "" {
		return all, nil
	}

	g, err := glob.Compile(match)
	if err != nil {
		return nil, fmt.Errorf("invalid match pattern %q: %w", match, err)
	}
	out := make([]Dataset, 0, len(all))
	for _, ds := range all {
		if g.Match(ds.Title) {
			out = append(out, ds)
		}
	}
	return out, nil
}

// DeleteDataset removes a dataset. The default dataset setting is left for
// the next EnsureDefaultDataset pass to repair.
func (c *Client) DeleteDataset(ctx context.Context, id string) error {
	if err := c.store.DeleteDataset(ctx, id); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "dataset deleted", "dataset_id", id)
	return nil
}

// GetSetting returns a setting value, "" when unset.
func (c *Client) GetSetting(ctx context.Context, key string) (string, error) {
	return c.store.Get(ctx, key)
}

// SetSetting stores a setting value.
func (c *Client) SetSetting(ctx context.Context, key, value string) error {
	return c.store.Set(ctx, key, value)
}

// RemoveSetting clears a setting.
func (c *Client) RemoveSetting(ctx context.Context, key string) error {
	return c.store.Remove(ctx, key)
}

// Settings returns all stored settings.
func (c *Client) Settings(ctx context.Context) (map[string]string, error) {
	return c.store.Settings(ctx)
}

// Description returns the free-text description of the workspace database.
func (c *Client) Description() (string, error) {
	return c.store.GetMetadata(metadataKeyDescription)
}

// SetDescription replaces the database description. It travels with exports.
func (c *Client) SetDescription(desc string) error {
	return c.store.SetMetadata(metadataKeyDescription, strings.TrimSpace(desc))
}

// CreateWorkspace validates the form fields and persists a new workspace.
func (c *Client) CreateWorkspace(ctx context.Context, params WorkspaceParams) (*Workspace, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrEmptyTitle
	}
	privacy := params.Privacy
	if privacy == "" {
		privacy = workspace.DefaultPrivacy
	}
	if !privacy.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrivacy, privacy)
	}
	sources := params.DataSources
	if sources == nil {
		sources = []workspace.DataSource{}
	}
	if err := validateDataSources(sources); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	ws := Workspace{
		ID:          ulid.Make().String(),
		Name:        name,
		Description: params.Description,
		Privacy:     privacy,
		DataSources: sources,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.store.SaveWorkspace(ctx, ws); err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "workspace created", "workspace_id", ws.ID, "privacy", ws.Privacy)
	return &ws, nil
}

// GetWorkspace returns a workspace record.
func (c *Client) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	return c.store.GetWorkspace(ctx, id)
}

// ListWorkspaces returns all workspace records.
func (c *Client) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	return c.store.ListWorkspaces(ctx)
}

// DeleteWorkspace removes a workspace record.
func (c *Client) DeleteWorkspace(ctx context.Context, id string) error {
	return c.store.DeleteWorkspace(ctx, id)
}

// SetWorkspacePrivacy changes a workspace's privacy type.
func (c *Client) SetWorkspacePrivacy(ctx context.Context, id string, privacy workspace.PrivacyType) (*Workspace, error) {
	if !privacy.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrivacy, privacy)
	}
	return c.updateWorkspace(ctx, id, func(ws *Workspace) error {
		ws.Privacy = privacy
		return nil
	})
}

// AssignDataSources adds the OpenSearch connections among picked to a workspace.
func (c *Client) AssignDataSources(ctx context.Context, id string, picked []workspace.DataSourceConnection) (*Workspace, error) {
	return c.updateWorkspace(ctx, id, func(ws *Workspace) error {
		next := workspace.Assign(ws.DataSources, picked)
		if err := validateDataSources(next); err != nil {
			return err
		}
		ws.DataSources = next
		return nil
	})
}

// UnassignDataSources removes data sources from a workspace by ID.
func (c *Client) UnassignDataSources(ctx context.Context, id string, dataSourceIDs []string) (*Workspace, error) {
	return c.updateWorkspace(ctx, id, func(ws *Workspace) error {
		ws.DataSources = workspace.UnassignIDs(ws.DataSources, dataSourceIDs)
		return nil
	})
}

func (c *Client) updateWorkspace(ctx context.Context, id string, mutate func(*Workspace) error) (*Workspace, error) {
	ws, err := c.store.GetWorkspace(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(ws); err != nil {
		return nil, err
	}
	ws.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if err := c.store.SaveWorkspace(ctx, *ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func validateDataSources(sources []workspace.DataSource) error {
	errs := workspace.ValidateDataSources(sources)
	if len(errs) == 0 {
		return nil
	}
	for i := range sources {
		if fe, ok := errs[i]; ok {
			return fmt.Errorf("%w: data source %d: %s", ErrInvalidDataSources, i, fe.Message)
		}
	}
	return ErrInvalidDataSources
}

// Stats returns store statistics.
func (c *Client) Stats(ctx context.Context) (*StoreStats, error) {
	return c.store.Stats(ctx)
}

// HealthCheck returns the health status of the client.
func (c *Client) HealthCheck(ctx context.Context) HealthStatus {
	if _, err := c.store.Stats(ctx); err != nil {
		return HealthStatus{Healthy: false, StoreOK: false, Error: err.Error()}
	}
	return HealthStatus{Healthy: true, StoreOK: true}
}

// Close closes the underlying store.
func (c *Client) Close() error {
	return c.store.Close()
}
