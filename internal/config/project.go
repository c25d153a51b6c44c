package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hargabyte/i18nsync/internal/state"
)

// LockFileName is the advisory lock held while a sync runs.
const LockFileName = "sync.lock"

// Project is a loaded configuration anchored at its root directory.
type Project struct {
	// Root is the directory containing .i18nsync/; all configured paths
	// are relative to it.
	Root   string
	Config *Config
	Env    Env
}

// LoadProject finds the configuration for workDir and loads it together
// with the environment. Without a config directory the root is workDir and
// defaults apply.
func LoadProject(workDir string) (*Project, error) {
	root, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg := DefaultConfig()
	configDir, err := FindConfigDir(root)
	switch {
	case err == nil:
		root = filepath.Dir(configDir)
		cfg, err = LoadFromPath(filepath.Join(configDir, ConfigFileName))
		if err != nil {
			return nil, err
		}
	case !errors.Is(err, ErrConfigNotFound):
		return nil, err
	}

	e, err := LoadEnv(root)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(e); err != nil {
		return nil, err
	}

	return &Project{Root: root, Config: cfg, Env: e}, nil
}

// Path resolves a project-relative path.
func (p *Project) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// ConfigDir returns the .i18nsync directory.
func (p *Project) ConfigDir() string {
	return filepath.Join(p.Root, ConfigDirName)
}

// SrcDir returns the source root that key paths are derived from.
func (p *Project) SrcDir() string {
	return p.Path(p.Config.Paths.Src)
}

// LocalePath returns the translation file for lang.
func (p *Project) LocalePath(lang string) string {
	return p.Path(p.Config.LocaleFile(lang))
}

// StatePath returns where the state backend keeps its data. The SQL
// backends keep theirs under .i18nsync/ unless paths.state was changed from
// its default.
func (p *Project) StatePath() string {
	if p.Config.Paths.State == DefaultConfig().Paths.State {
		switch state.Backend(p.Config.State.Backend) {
		case state.BackendSQLite:
			return filepath.Join(p.ConfigDir(), "state.db")
		case state.BackendDolt:
			return filepath.Join(p.ConfigDir(), "state")
		}
	}
	return p.Path(p.Config.Paths.State)
}

// BackupDir returns the directory receiving timestamped backups.
func (p *Project) BackupDir() string {
	return p.Path(p.Config.Paths.Backups)
}

// I18nModule returns the module that generated imports point at.
func (p *Project) I18nModule() string {
	return p.Path(p.Config.Paths.I18nModule)
}

// LockPath returns the sync lock file.
func (p *Project) LockPath() string {
	return filepath.Join(p.ConfigDir(), LockFileName)
}
