package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hargabyte/i18nsync/internal/config"
	"github.com/hargabyte/i18nsync/internal/fsutil"
	"github.com/hargabyte/i18nsync/internal/tree"
)

// InitResult reports what Init did.
type InitResult struct {
	Language   string `json:"language" yaml:"language"`
	ConfigPath string `json:"config_path" yaml:"config_path"`
	LocalePath string `json:"locale_path" yaml:"locale_path"`
	// AlreadyPresent is set when the language was configured before.
	AlreadyPresent bool `json:"already_present" yaml:"already_present"`
	// CreatedLocale is set when an empty translation file was written.
	CreatedLocale bool `json:"created_locale" yaml:"created_locale"`
}

// Init adds lang to the project's languages, creating the configuration
// under workDir when no project is found, and creates an empty translation
// file for it.
func Init(workDir, lang string) (*InitResult, error) {
	code, err := config.NormalizeLanguage(lang)
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg := config.DefaultConfig()
	if dir, err := config.FindConfigDir(root); err == nil {
		root = filepath.Dir(dir)
		if cfg, err = config.LoadFromPath(filepath.Join(dir, config.ConfigFileName)); err != nil {
			return nil, err
		}
	}

	res := &InitResult{Language: code}
	p := &config.Project{Root: root, Config: cfg}
	res.LocalePath = p.LocalePath(code)
	res.ConfigPath = filepath.Join(p.ConfigDir(), config.ConfigFileName)

	if cfg.HasLanguage(code) && fsutil.Exists(res.ConfigPath) {
		res.AlreadyPresent = true
	} else {
		if !cfg.HasLanguage(code) {
			cfg.Languages = append(cfg.Languages, code)
		}
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
		if _, err := config.Save(root, cfg); err != nil {
			return nil, err
		}
	}

	if !fsutil.Exists(res.LocalePath) {
		if err := os.MkdirAll(filepath.Dir(res.LocalePath), 0o755); err != nil {
			return nil, fmt.Errorf("create locale directory: %w", err)
		}
		if err := tree.Save(res.LocalePath, tree.New()); err != nil {
			return nil, fmt.Errorf("create translation file: %w", err)
		}
		res.CreatedLocale = true
	}

	return res, nil
}
