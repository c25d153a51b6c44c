package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/dolthub/driver"
)

const doltDatabase = "i18nsync"

// DoltStore keeps the snapshot in a Dolt repository and commits every save,
// so the history of synced hashes can be inspected with History.
type DoltStore struct {
	db     *sql.DB
	dbPath string
}

// Commit is one entry of the Dolt commit log.
type Commit struct {
	Hash      string `json:"hash" yaml:"hash"`
	Committer string `json:"committer" yaml:"committer"`
	Email     string `json:"email" yaml:"email"`
	Date      string `json:"date" yaml:"date"`
	Message   string `json:"message" yaml:"message"`
}

// OpenDolt opens or creates the Dolt repository in dir.
func OpenDolt(dir string) (*DoltStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dolt directory: %w", err)
	}

	// First connect without a database so it can be created.
	initDSN := fmt.Sprintf("file://%s?commitname=i18nsync&commitemail=i18nsync@local", dir)
	initDB, err := sql.Open("dolt", initDSN)
	if err != nil {
		return nil, fmt.Errorf("open dolt for init: %w", err)
	}
	if _, err := initDB.Exec("CREATE DATABASE IF NOT EXISTS " + doltDatabase); err != nil {
		initDB.Close()
		return nil, fmt.Errorf("create database: %w", err)
	}
	initDB.Close()

	dsn := fmt.Sprintf("file://%s?commitname=i18nsync&commitemail=i18nsync@local&database=%s", dir, doltDatabase)
	db, err := sql.Open("dolt", dsn)
	if err != nil {
		return nil, fmt.Errorf("open dolt db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &DoltStore{db: db, dbPath: dir}, nil
}

// Load returns the snapshot at the working set.
func (s *DoltStore) Load(ctx context.Context) (State, error) {
	return loadTable(ctx, s.db)
}

// Save replaces the snapshot and commits it when anything changed.
func (s *DoltStore) Save(ctx context.Context, st State) error {
	if err := saveTable(ctx, s.db, st, "REPLACE INTO file_state (file_path, content_hash, recorded_at) VALUES (?, ?, ?)"); err != nil {
		return err
	}

	var dirty int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dolt_status").Scan(&dirty); err != nil {
		return fmt.Errorf("query dolt status: %w", err)
	}
	if dirty == 0 {
		return nil
	}

	msg := fmt.Sprintf("sync: %d files", len(st))
	if _, err := s.db.ExecContext(ctx, "CALL DOLT_COMMIT('-Am', ?)", msg); err != nil {
		return fmt.Errorf("dolt commit: %w", err)
	}
	return nil
}

// History returns the most recent commits, newest first.
func (s *DoltStore) History(ctx context.Context, limit int) ([]Commit, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT commit_hash, committer, email, date, message FROM dolt_log ORDER BY date DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("query dolt_log: %w", err)
	}
	defer rows.Close()

	var out []Commit
	for rows.Next() {
		var c Commit
		if err := rows.Scan(&c.Hash, &c.Committer, &c.Email, &c.Date, &c.Message); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		c.Message = strings.TrimSpace(c.Message)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Path returns the repository directory.
func (s *DoltStore) Path() string { return s.dbPath }

// Close closes the database connection.
func (s *DoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
