package state

import (
	"context"
	"errors"
	"fmt"
)

// Backend names a Store implementation.
type Backend string

const (
	// BackendJSON keeps the snapshot in a single JSON document.
	BackendJSON Backend = "json"
	// BackendSQLite keeps the snapshot in a SQLite table.
	BackendSQLite Backend = "sqlite"
	// BackendDolt keeps the snapshot in a Dolt table and commits each save.
	BackendDolt Backend = "dolt"
)

// ErrUnknownBackend is returned by Open for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown state backend")

// Store persists snapshots between runs.
type Store interface {
	// Load returns the last saved snapshot. A store that was never saved
	// returns an empty snapshot and no error.
	Load(ctx context.Context) (State, error)
	// Save replaces the stored snapshot with st.
	Save(ctx context.Context, st State) error
	// Path returns where the store keeps its data.
	Path() string
	Close() error
}

// Backends lists the supported backend names.
func Backends() []Backend {
	return []Backend{BackendJSON, BackendSQLite, BackendDolt}
}

// ParseBackend validates a backend name. The empty string selects JSON.
func ParseBackend(name string) (Backend, error) {
	switch Backend(name) {
	case "", BackendJSON:
		return BackendJSON, nil
	case BackendSQLite:
		return BackendSQLite, nil
	case BackendDolt:
		return BackendDolt, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

// Open opens the store for backend at path. For JSON and SQLite path is a
// file; for Dolt it is the repository directory.
func Open(backend Backend, path string) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return OpenJSON(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendDolt:
		return OpenDolt(path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}
