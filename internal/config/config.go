package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hargabyte/i18nsync/internal/fsutil"
	"github.com/hargabyte/i18nsync/internal/keypath"
	"github.com/hargabyte/i18nsync/internal/state"
)

// ConfigFileName is the name of the i18nsync configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the i18nsync configuration directory
const ConfigDirName = ".i18nsync"

// LangPlaceholder is replaced by a language code in Paths.Locales.
const LangPlaceholder = "{lang}"

// Config holds all i18nsync configuration
type Config struct {
	SourceLanguage string          `yaml:"source_language"`
	Languages      []string        `yaml:"languages"`
	Paths          PathsConfig     `yaml:"paths"`
	Targets        TargetsConfig   `yaml:"targets"`
	Keys           KeysConfig      `yaml:"keys"`
	Reference      ReferenceConfig `yaml:"reference"`
	State          StateConfig     `yaml:"state"`
	Translate      TranslateConfig `yaml:"translate"`
}

// PathsConfig holds project-relative locations
type PathsConfig struct {
	Src        string `yaml:"src"`
	Locales    string `yaml:"locales"`
	State      string `yaml:"state"`
	Backups    string `yaml:"backups"`
	I18nModule string `yaml:"i18n_module"`
}

// TargetsConfig selects which files under Paths.Src are managed
type TargetsConfig struct {
	FileNames   []string `yaml:"file_names"`
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// KeysConfig holds the key path derivation rules
type KeysConfig struct {
	FeatureMarker   string `yaml:"feature_marker"`
	SharedDir       string `yaml:"shared_dir"`
	FallbackFeature string `yaml:"fallback_feature"`
	ReservedName    string `yaml:"reserved_name"`
	ReservedPrefix  string `yaml:"reserved_prefix"`
}

// ReferenceConfig holds the shape of generated reference calls
type ReferenceConfig struct {
	Namespace      string `yaml:"namespace"`
	Function       string `yaml:"function"`
	LegacyFunction string `yaml:"legacy_function"`
}

// StateConfig selects the change-detection backend
type StateConfig struct {
	Backend string `yaml:"backend"`
}

// TranslateConfig holds machine translation settings
type TranslateConfig struct {
	Provider   string        `yaml:"provider"`
	Endpoint   string        `yaml:"endpoint"`
	BatchSize  int           `yaml:"batch_size"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Rules returns the key path derivation rules.
func (c *Config) Rules() keypath.Rules {
	return keypath.Rules{
		FeatureMarker:  c.Keys.FeatureMarker,
		SharedDir:      c.Keys.SharedDir,
		Fallback:       c.Keys.FallbackFeature,
		ReservedName:   c.Keys.ReservedName,
		ReservedPrefix: c.Keys.ReservedPrefix,
	}
}

// ReferenceSyntax returns the reference call shape.
func (c *Config) ReferenceSyntax() keypath.Reference {
	return keypath.Reference{
		Namespace: c.Reference.Namespace,
		Function:  c.Reference.Function,
		Legacy:    c.Reference.LegacyFunction,
	}
}

// TargetLanguages returns the configured languages other than the source.
func (c *Config) TargetLanguages() []string {
	var out []string
	for _, lang := range c.Languages {
		if lang != c.SourceLanguage {
			out = append(out, lang)
		}
	}
	return out
}

// HasLanguage reports whether lang is configured.
func (c *Config) HasLanguage(lang string) bool {
	for _, l := range c.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// LocaleFile returns the project-relative translation file for lang.
func (c *Config) LocaleFile(lang string) string {
	return filepath.FromSlash(strings.ReplaceAll(c.Paths.Locales, LangPlaceholder, lang))
}

// Load reads config from .i18nsync/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		// No config dir found, return defaults
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .i18nsync directory by walking up from startDir.
// Returns the path to the .i18nsync directory if found.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .i18nsync directory if it doesn't exist.
// Returns the path to the .i18nsync directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
// Returns an error if validation fails.
func Validate(cfg *Config) error {
	if _, err := NormalizeLanguage(cfg.SourceLanguage); err != nil {
		return fmt.Errorf("%w: source_language: %v", ErrInvalidConfig, err)
	}

	if !cfg.HasLanguage(cfg.SourceLanguage) {
		return fmt.Errorf("%w: languages must include source_language %q, got %v",
			ErrInvalidConfig, cfg.SourceLanguage, cfg.Languages)
	}

	seen := make(map[string]bool, len(cfg.Languages))
	for _, lang := range cfg.Languages {
		if _, err := NormalizeLanguage(lang); err != nil {
			return fmt.Errorf("%w: languages: %v", ErrInvalidConfig, err)
		}
		if seen[lang] {
			return fmt.Errorf("%w: language %q listed twice", ErrInvalidConfig, lang)
		}
		seen[lang] = true
	}

	if !strings.Contains(cfg.Paths.Locales, LangPlaceholder) {
		return fmt.Errorf("%w: paths.locales must contain %s, got %q",
			ErrInvalidConfig, LangPlaceholder, cfg.Paths.Locales)
	}

	if len(cfg.Targets.FileNames) == 0 {
		return fmt.Errorf("%w: targets.file_names must not be empty", ErrInvalidConfig)
	}

	if !keypath.ValidSegment(cfg.Reference.Namespace) || !keypath.ValidSegment(cfg.Reference.Function) {
		return fmt.Errorf("%w: reference namespace and function must be non-empty names without dots, got %q and %q",
			ErrInvalidConfig, cfg.Reference.Namespace, cfg.Reference.Function)
	}

	if _, err := state.ParseBackend(cfg.State.Backend); err != nil {
		return fmt.Errorf("%w: state.backend: %v", ErrInvalidConfig, err)
	}

	if !IsValidProvider(cfg.Translate.Provider) {
		return fmt.Errorf("%w: translate.provider must be one of %v, got %q",
			ErrInvalidConfig, ValidProviders, cfg.Translate.Provider)
	}

	if cfg.Translate.BatchSize <= 0 {
		return fmt.Errorf("%w: translate.batch_size must be positive, got %d",
			ErrInvalidConfig, cfg.Translate.BatchSize)
	}

	if cfg.Translate.MaxRetries < 0 {
		return fmt.Errorf("%w: translate.max_retries must be non-negative, got %d",
			ErrInvalidConfig, cfg.Translate.MaxRetries)
	}

	if cfg.Translate.Timeout <= 0 {
		return fmt.Errorf("%w: translate.timeout must be positive, got %s",
			ErrInvalidConfig, cfg.Translate.Timeout)
	}

	return nil
}

// Save writes cfg to .i18nsync/config.yaml in workDir, replacing any
// existing file. Creates the .i18nsync directory if it doesn't exist.
func Save(workDir string, cfg *Config) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# i18nsync configuration\n# Paths are relative to the directory containing .i18nsync/\n\n"
	data = append([]byte(header), data...)

	configPath := filepath.Join(configDir, ConfigFileName)
	if err := fsutil.WriteFileAtomic(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}

// SaveDefault writes the default configuration to .i18nsync/config.yaml in
// workDir. It refuses to overwrite an existing file.
func SaveDefault(workDir string) (string, error) {
	configPath := filepath.Join(workDir, ConfigDirName, ConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}
	return Save(workDir, DefaultConfig())
}
