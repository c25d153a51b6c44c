package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// Env holds settings that only come from the environment.
type Env struct {
	DeepLAPIKey   string `env:"DEEPL_API_KEY"`
	DeepLEndpoint string `env:"DEEPL_ENDPOINT"`
	StateBackend  string `env:"I18NSYNC_STATE_BACKEND"`
}

// LoadEnv loads root/.env when present, without overriding variables that
// are already set, then parses the process environment.
func LoadEnv(root string) (Env, error) {
	var e Env
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return e, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(&e); err != nil {
		return e, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// ApplyEnv overrides config values that have an environment counterpart.
func (c *Config) ApplyEnv(e Env) error {
	if e.DeepLEndpoint != "" {
		c.Translate.Endpoint = e.DeepLEndpoint
	}
	if e.StateBackend != "" {
		c.State.Backend = e.StateBackend
		return Validate(c)
	}
	return nil
}

// NormalizeLanguage lower-cases code and checks that it is a well-formed
// BCP 47 tag.
func NormalizeLanguage(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", errors.New("empty language code")
	}
	if _, err := language.Parse(code); err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	return code, nil
}
