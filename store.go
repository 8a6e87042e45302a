package vista

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hyperengineering/vista/internal/store/migrations"
	"github.com/hyperengineering/vista/workspace"
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
	_ "modernc.org/sqlite"
)

const schemaVersion = "2"

// Metadata keys.
const (
	metadataKeySchemaVersion = "schema_version"
	metadataKeyCreatedAt     = "created_at"
	metadataKeyDescription   = "description"
)

// Store is the SQLite database behind one workspace: its settings, datasets
// and workspace records. It implements SettingsStore and DatasetRegistry.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

var (
	_ SettingsStore   = (*Store)(nil)
	_ DatasetRegistry = (*Store)(nil)
)

// NewStore opens or creates a store at path, applying pending migrations.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("store: set goose dialect: %w", err)
	}
	if err := goose.Up(s.db, "."); err != nil {
		return fmt.Errorf("store: run migrations: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO metadata (key, value) VALUES (?, ?)`, metadataKeyCreatedAt, now); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`, metadataKeySchemaVersion, schemaVersion)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// GetMetadata returns a metadata value, "" when unset.
func (s *Store) GetMetadata(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}
	return s.getMetadata(key)
}

func (s *Store) getMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", oops.Code("METADATA_READ_FAILED").With("key", key).Wrap(err)
	}
	return value, nil
}

// SetMetadata upserts a metadata value.
func (s *Store) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.Exec(`INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`, key, value); err != nil {
		return oops.Code("METADATA_WRITE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Get returns the setting stored under key, "" when unset.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", oops.Code("SETTINGS_READ_FAILED").With("key", key).Wrap(err)
	}
	return value, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return oops.Code("SETTINGS_WRITE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Remove deletes the setting under key. Removing an unset key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return oops.Code("SETTINGS_WRITE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Settings returns every stored setting.
func (s *Store) Settings(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, oops.Code("SETTINGS_READ_FAILED").Wrap(err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, oops.Code("SETTINGS_READ_FAILED").Wrap(err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// CreateDataset inserts a dataset. An empty ID is filled with a new ULID.
func (s *Store) CreateDataset(ctx context.Context, ds Dataset) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	ds.Title = strings.TrimSpace(ds.Title)
	if ds.Title == "" {
		return nil, ErrEmptyTitle
	}
	if ds.ID == "" {
		ds.ID = ulid.Make().String()
	}
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now().UTC()
	}

	exists, err := s.datasetExists(ctx, ds.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrDatasetExists, ds.ID)
	}

	if err := s.insertDataset(ctx, s.db, ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertDataset(ctx context.Context, db execer, ds Dataset) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO datasets (id, title, time_field, created_at) VALUES (?, ?, ?, ?)
	`, ds.ID, ds.Title, nullString(ds.TimeField), ds.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return oops.Code("DATASET_WRITE_FAILED").With("dataset_id", ds.ID).Wrap(err)
	}
	return nil
}

func (s *Store) datasetExists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets WHERE id = ?`, id).Scan(&n); err != nil {
		return false, oops.Code("DATASET_QUERY_FAILED").With("dataset_id", id).Wrap(err)
	}
	return n > 0, nil
}

// GetDataset returns the dataset with the given ID or ErrDatasetNotFound.
func (s *Store) GetDataset(ctx context.Context, id string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, time_field, created_at FROM datasets WHERE id = ?
	`, id)
	ds, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDatasetNotFound
	}
	if err != nil {
		return nil, oops.Code("DATASET_QUERY_FAILED").With("dataset_id", id).Wrap(err)
	}
	return ds, nil
}

// ListDatasets returns all datasets in creation order.
func (s *Store) ListDatasets(ctx context.Context) ([]Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, time_field, created_at FROM datasets ORDER BY seq
	`)
	if err != nil {
		return nil, oops.Code("DATASET_QUERY_FAILED").Wrap(err)
	}
	defer rows.Close()

	var out []Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, oops.Code("DATASET_QUERY_FAILED").Wrap(err)
		}
		out = append(out, *ds)
	}
	return out, rows.Err()
}

// DatasetIDs returns the IDs of all datasets in creation order.
func (s *Store) DatasetIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM datasets ORDER BY seq`)
	if err != nil {
		return nil, oops.Code("DATASET_QUERY_FAILED").Wrap(err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, oops.Code("DATASET_QUERY_FAILED").Wrap(err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteDataset removes a dataset. It does not touch the default dataset
// setting; the resolver repairs that on its next pass.
func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return oops.Code("DATASET_WRITE_FAILED").With("dataset_id", id).Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Code("DATASET_WRITE_FAILED").With("dataset_id", id).Wrap(err)
	}
	if n == 0 {
		return ErrDatasetNotFound
	}
	return nil
}

// SaveWorkspace inserts or replaces a workspace record together with its data sources.
func (s *Store) SaveWorkspace(ctx context.Context, ws Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.Code("WORKSPACE_WRITE_FAILED").Wrap(err)
	}
	defer tx.Rollback() // no-op if committed

	if err := saveWorkspace(ctx, tx, ws); err != nil {
		return err
	}

	return tx.Commit()
}

func saveWorkspace(ctx context.Context, tx execer, ws Workspace) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO workspaces (id, name, description, privacy, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			privacy = excluded.privacy,
			updated_at = excluded.updated_at
	`,
		ws.ID,
		ws.Name,
		nullString(ws.Description),
		string(ws.Privacy),
		ws.CreatedAt.UTC().Format(time.RFC3339),
		ws.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return oops.Code("WORKSPACE_WRITE_FAILED").With("workspace_id", ws.ID).Wrap(err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM workspace_data_sources WHERE workspace_id = ?`, ws.ID); err != nil {
		return oops.Code("WORKSPACE_WRITE_FAILED").With("workspace_id", ws.ID).Wrap(err)
	}
	for i, ds := range ws.DataSources {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO workspace_data_sources (workspace_id, position, id, title, description, engine_type)
			VALUES (?, ?, ?, ?, ?, ?)
		`, ws.ID, i, ds.ID, ds.Title, nullString(ds.Description), nullString(ds.EngineType))
		if err != nil {
			return oops.Code("WORKSPACE_WRITE_FAILED").With("workspace_id", ws.ID).With("data_source_id", ds.ID).Wrap(err)
		}
	}

	return nil
}

// GetWorkspace returns the workspace with the given ID or ErrWorkspaceNotFound.
func (s *Store) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.getWorkspace(ctx, id)
}

func (s *Store) getWorkspace(ctx context.Context, id string) (*Workspace, error) {
	var (
		ws                   Workspace
		desc                 sql.NullString
		privacy              string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, privacy, created_at, updated_at FROM workspaces WHERE id = ?
	`, id).Scan(&ws.ID, &ws.Name, &desc, &privacy, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, oops.Code("WORKSPACE_QUERY_FAILED").With("workspace_id", id).Wrap(err)
	}
	ws.Description = desc.String
	ws.Privacy = workspace.PrivacyType(privacy)
	if ws.CreatedAt, err = parseTimestamp("workspaces.created_at", createdAt); err != nil {
		return nil, oops.Code("WORKSPACE_QUERY_FAILED").With("workspace_id", id).Wrap(err)
	}
	if ws.UpdatedAt, err = parseTimestamp("workspaces.updated_at", updatedAt); err != nil {
		return nil, oops.Code("WORKSPACE_QUERY_FAILED").With("workspace_id", id).Wrap(err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, engine_type FROM workspace_data_sources
		WHERE workspace_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, oops.Code("WORKSPACE_QUERY_FAILED").With("workspace_id", id).Wrap(err)
	}
	defer rows.Close()

	ws.DataSources = []workspace.DataSource{}
	for rows.Next() {
		var (
			ds               workspace.DataSource
			dsDesc, dsEngine sql.NullString
		)
		if err := rows.Scan(&ds.ID, &ds.Title, &dsDesc, &dsEngine); err != nil {
			return nil, oops.Code("WORKSPACE_QUERY_FAILED").With("workspace_id", id).Wrap(err)
		}
		ds.Description = dsDesc.String
		ds.EngineType = dsEngine.String
		ws.DataSources = append(ws.DataSources, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &ws, nil
}

// ListWorkspaces returns all workspace records ordered by name.
func (s *Store) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM workspaces ORDER BY name, id`)
	if err != nil {
		return nil, oops.Code("WORKSPACE_QUERY_FAILED").Wrap(err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, oops.Code("WORKSPACE_QUERY_FAILED").Wrap(err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Workspace, 0, len(ids))
	for _, id := range ids {
		ws, err := s.getWorkspace(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *ws)
	}
	return out, nil
}

// DeleteWorkspace removes a workspace record and its data source assignments.
func (s *Store) DeleteWorkspace(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.Code("WORKSPACE_WRITE_FAILED").Wrap(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM workspace_data_sources WHERE workspace_id = ?`, id); err != nil {
		return oops.Code("WORKSPACE_WRITE_FAILED").With("workspace_id", id).Wrap(err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id)
	if err != nil {
		return oops.Code("WORKSPACE_WRITE_FAILED").With("workspace_id", id).Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Code("WORKSPACE_WRITE_FAILED").With("workspace_id", id).Wrap(err)
	}
	if n == 0 {
		return ErrWorkspaceNotFound
	}
	return tx.Commit()
}

// Stats returns store statistics.
func (s *Store) Stats(ctx context.Context) (*StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	stats := &StoreStats{}
	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM datasets`, &stats.DatasetCount},
		{`SELECT COUNT(*) FROM settings`, &stats.SettingCount},
		{`SELECT COUNT(*) FROM workspaces`, &stats.WorkspaceCount},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, oops.Code("STATS_FAILED").Wrap(err)
		}
	}

	var def sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, SettingDefaultDataset).Scan(&def)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("STATS_FAILED").Wrap(err)
	}
	stats.DefaultDataset = def.String

	version, err := s.getMetadata(metadataKeySchemaVersion)
	if err != nil {
		return nil, err
	}
	stats.SchemaVersion = version

	return stats, nil
}

// Close closes the database. Further calls return ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(sc scanner) (*Dataset, error) {
	var (
		ds        Dataset
		timeField sql.NullString
		createdAt string
	)
	if err := sc.Scan(&ds.ID, &ds.Title, &timeField, &createdAt); err != nil {
		return nil, err
	}
	ds.TimeField = timeField.String
	created, err := parseTimestamp("datasets.created_at", createdAt)
	if err != nil {
		return nil, oops.With("dataset_id", ds.ID).Wrap(err)
	}
	ds.CreatedAt = created
	return &ds, nil
}

// parseTimestamp reads an RFC 3339 column value. A malformed value is an
// error rather than the zero time.
func parseTimestamp(column, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, oops.With("column", column, "value", value).Wrapf(err, "parse %s", column)
	}
	return t, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
