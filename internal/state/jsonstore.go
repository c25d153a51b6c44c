package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hargabyte/i18nsync/internal/fsutil"
)

// JSONStore keeps the snapshot as a flat JSON object with sorted keys.
type JSONStore struct {
	path string
}

// OpenJSON returns a store backed by the JSON file at path. The file is not
// touched until Load or Save.
func OpenJSON(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads the snapshot. A missing or empty file yields an empty snapshot.
func (s *JSONStore) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return State{}, nil
	}

	st := State{}
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", s.path, err)
	}
	return st, nil
}

// Save writes st atomically.
func (s *JSONStore) Save(ctx context.Context, st State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if st == nil {
		st = State{}
	}
	// encoding/json sorts map keys.
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Path returns the state file path.
func (s *JSONStore) Path() string { return s.path }

// Close is a no-op.
func (s *JSONStore) Close() error { return nil }
