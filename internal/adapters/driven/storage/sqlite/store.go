// Package sqlite persists tokens, connector parameters and the job queue in
// a single SQLite database so configuration and pending work survive
// restarts.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nuclia/sync-agent/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage providing the token, parameter
// and job store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.nuclia-sync/data/sync.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".nuclia-sync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sync.db")

	// WAL mode for better concurrency between the transfer workers and
	// queue reads
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// TokenStore returns a TokenStore interface backed by this store.
func (s *Store) TokenStore() driven.TokenStore {
	return &tokenStore{store: s}
}

// ParamsStore returns a ParamsStore interface backed by this store.
func (s *Store) ParamsStore() driven.ParamsStore {
	return &paramsStore{store: s}
}

// JobStore returns a JobStore interface backed by this store.
func (s *Store) JobStore() driven.JobStore {
	return &jobStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Token Store ====================

type tokenStore struct {
	store *Store
}

var _ driven.TokenStore = (*tokenStore)(nil)

// Save stores or overwrites the token for a connector.
func (s *tokenStore) Save(ctx context.Context, connectorID string, token domain.Token) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO tokens (connector_id, access_token, refresh_token, refresh_endpoint, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(connector_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			refresh_endpoint = excluded.refresh_endpoint,
			updated_at = excluded.updated_at
	`, connectorID, token.AccessToken, token.RefreshToken, token.RefreshEndpoint)
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// Get retrieves the token for a connector.
func (s *tokenStore) Get(ctx context.Context, connectorID string) (*domain.Token, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, refresh_endpoint
		FROM tokens WHERE connector_id = ?
	`, connectorID)

	var token domain.Token
	if err := row.Scan(&token.AccessToken, &token.RefreshToken, &token.RefreshEndpoint); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning token: %w", err)
	}
	return &token, nil
}

// Delete removes the token for a connector.
func (s *tokenStore) Delete(ctx context.Context, connectorID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM tokens WHERE connector_id = ?", connectorID)
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}

// ==================== Params Store ====================

type paramsStore struct {
	store *Store
}

var _ driven.ParamsStore = (*paramsStore)(nil)

// Save stores or replaces the parameters for a connector.
func (s *paramsStore) Save(ctx context.Context, connectorID string, params domain.ConnectorParameters) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshalling params: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO connector_params (connector_id, params, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(connector_id) DO UPDATE SET
			params = excluded.params,
			updated_at = excluded.updated_at
	`, connectorID, string(paramsJSON))
	if err != nil {
		return fmt.Errorf("saving params: %w", err)
	}
	return nil
}

// Get retrieves the parameters for a connector.
func (s *paramsStore) Get(ctx context.Context, connectorID string) (domain.ConnectorParameters, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT params FROM connector_params WHERE connector_id = ?
	`, connectorID)

	var paramsJSON string
	if err := row.Scan(&paramsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning params: %w", err)
	}

	var params domain.ConnectorParameters
	if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		return nil, fmt.Errorf("unmarshaling params: %w", err)
	}
	return params, nil
}

// Delete removes the parameters for a connector.
func (s *paramsStore) Delete(ctx context.Context, connectorID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM connector_params WHERE connector_id = ?", connectorID)
	if err != nil {
		return fmt.Errorf("deleting params: %w", err)
	}
	return nil
}

// ==================== Job Store ====================

type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

// Save stores or updates a job keyed by its ID.
func (s *jobStore) Save(ctx context.Context, job domain.SyncJob) error {
	destJSON, err := json.Marshal(job.Destination)
	if err != nil {
		return fmt.Errorf("marshalling destination: %w", err)
	}
	filesJSON, err := json.Marshal(job.Files)
	if err != nil {
		return fmt.Errorf("marshalling files: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO jobs (id, created_at, source, destination, files, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			source = excluded.source,
			destination = excluded.destination,
			files = excluded.files,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at
	`, job.ID, job.Date, job.Source, string(destJSON), string(filesJSON),
		job.Started, job.Completed)
	if err != nil {
		return fmt.Errorf("saving job: %w", err)
	}
	return nil
}

// List returns all stored jobs ordered by creation date.
func (s *jobStore) List(ctx context.Context) ([]domain.SyncJob, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, created_at, source, destination, files, started_at, completed_at
		FROM jobs ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.SyncJob //nolint:prealloc // size unknown from query
	for rows.Next() {
		var job domain.SyncJob
		var destJSON, filesJSON string
		var started, completed sql.NullTime
		if err := rows.Scan(&job.ID, &job.Date, &job.Source, &destJSON, &filesJSON,
			&started, &completed); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}

		if err := json.Unmarshal([]byte(destJSON), &job.Destination); err != nil {
			return nil, fmt.Errorf("unmarshaling destination: %w", err)
		}
		if err := json.Unmarshal([]byte(filesJSON), &job.Files); err != nil {
			return nil, fmt.Errorf("unmarshaling files: %w", err)
		}
		if started.Valid {
			t := started.Time
			job.Started = &t
		}
		if completed.Valid {
			t := completed.Time
			job.Completed = &t
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return jobs, nil
}

// Delete removes a job by ID.
func (s *jobStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting job: %w", err)
	}
	return nil
}
