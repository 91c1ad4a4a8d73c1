// Package sqlite persists session state in a local SQLite database so
// the session survives across CLI invocations.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/datatalk-labs/datatalk-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/datatalk-labs/datatalk-cli/internal/core/domain"
	"github.com/datatalk-labs/datatalk-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

// Store is a SQLite-backed session store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store in the given data directory.
// If dataDir is empty, defaults to ~/.datatalk/data/session.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".datatalk", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "session.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

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

// Load reads the persisted session with its tracked indices and
// indexed documents. A database without a session returns ErrNotFound.
func (s *Store) Load(ctx context.Context) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, last_activity, timeout_minutes
		FROM sessions LIMIT 1
	`)

	var session domain.Session
	if err := row.Scan(&session.ID, &session.LastActivity, &session.TimeoutMinutes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	session.TrackedIndices = make(map[string]struct{})
	session.Documents = make(map[string]domain.IndexedDocument)
	session.Selected = make(map[string]struct{})

	rows, err := s.db.QueryContext(ctx, `
		SELECT index_name FROM tracked_indices WHERE session_id = ?
	`, session.ID)
	if err != nil {
		return nil, fmt.Errorf("querying tracked indices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning tracked index: %w", err)
		}
		session.TrackedIndices[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tracked indices: %w", err)
	}

	docRows, err := s.db.QueryContext(ctx, `
		SELECT id, display_name, format, index_name, indexed_at, selected
		FROM indexed_documents WHERE session_id = ?
	`, session.ID)
	if err != nil {
		return nil, fmt.Errorf("querying indexed documents: %w", err)
	}
	defer docRows.Close()

	for docRows.Next() {
		var doc domain.IndexedDocument
		var format string
		var selected bool
		if err := docRows.Scan(&doc.ID, &doc.DisplayName, &format, &doc.IndexName, &doc.IndexedAt, &selected); err != nil {
			return nil, fmt.Errorf("scanning indexed document: %w", err)
		}
		doc.Format = domain.SourceFormat(format)
		session.Documents[doc.ID] = doc
		if selected {
			session.Selected[doc.ID] = struct{}{}
		}
	}
	if err := docRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating indexed documents: %w", err)
	}

	return &session, nil
}

// Save writes the whole session state in one transaction. The child
// tables are rewritten rather than diffed; sessions are small.
func (s *Store) Save(ctx context.Context, session *domain.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Single-session store: replace whatever was there.
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id != ?", session.ID); err != nil {
		return fmt.Errorf("pruning sessions: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, last_activity, timeout_minutes)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_activity = excluded.last_activity,
			timeout_minutes = excluded.timeout_minutes
	`, session.ID, session.LastActivity, session.TimeoutMinutes); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM tracked_indices WHERE session_id = ?", session.ID); err != nil {
		return fmt.Errorf("clearing tracked indices: %w", err)
	}
	for name := range session.TrackedIndices {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tracked_indices (session_id, index_name) VALUES (?, ?)
		`, session.ID, name); err != nil {
			return fmt.Errorf("saving tracked index: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM indexed_documents WHERE session_id = ?", session.ID); err != nil {
		return fmt.Errorf("clearing indexed documents: %w", err)
	}
	for _, doc := range session.Documents {
		_, selected := session.Selected[doc.ID]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO indexed_documents (session_id, id, display_name, format, index_name, indexed_at, selected)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, session.ID, doc.ID, doc.DisplayName, string(doc.Format), doc.IndexName, doc.IndexedAt, selected); err != nil {
			return fmt.Errorf("saving indexed document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
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
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
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
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
