package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the snapshot in the file_state table of a SQLite
// database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens or creates the database at path and initializes the
// schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	// Enable WAL mode for concurrent readers
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: path}, nil
}

// Load returns every recorded file hash.
func (s *SQLiteStore) Load(ctx context.Context) (State, error) {
	return loadTable(ctx, s.db)
}

// Save replaces the table contents with st in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, st State) error {
	return saveTable(ctx, s.db, st, "INSERT OR REPLACE INTO file_state (file_path, content_hash, recorded_at) VALUES (?, ?, ?)")
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.dbPath }

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func loadTable(ctx context.Context, db *sql.DB) (State, error) {
	rows, err := db.QueryContext(ctx, "SELECT file_path, content_hash FROM file_state")
	if err != nil {
		return nil, fmt.Errorf("query file state: %w", err)
	}
	defer rows.Close()

	st := State{}
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("scan file state: %w", err)
		}
		st[path] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file state: %w", err)
	}
	return st, nil
}

func saveTable(ctx context.Context, db *sql.DB, st State, insertSQL string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM file_state"); err != nil {
		return fmt.Errorf("clear file state: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, path := range st.Paths() {
		if _, err := stmt.ExecContext(ctx, path, st[path], now); err != nil {
			return fmt.Errorf("insert %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
