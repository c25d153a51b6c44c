package config

import (
	"strings"
	"time"
)

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		SourceLanguage: "en",
		Languages:      []string{"en"},
		Paths: PathsConfig{
			Src:        "src",
			Locales:    "src/locales/{lang}/translation.json",
			State:      ".i18n_state.json",
			Backups:    ".i18nsync/backups",
			I18nModule: "src/i18n",
		},
		Targets: TargetsConfig{
			FileNames: []string{"script_lines.js"},
			ExcludeDirs: []string{
				"node_modules",
				"locales",
				"dist",
				"build",
				".git",
			},
		},
		Keys: KeysConfig{
			FeatureMarker:   "features",
			SharedDir:       "utils",
			FallbackFeature: "common",
			ReservedName:    "scriptLines",
			ReservedPrefix:  "scriptLines_",
		},
		Reference: ReferenceConfig{
			Namespace:      "i18n",
			Function:       "t",
			LegacyFunction: "t",
		},
		State: StateConfig{
			Backend: "json",
		},
		Translate: TranslateConfig{
			Provider:   "deepl",
			Endpoint:   "https://api-free.deepl.com/v2/translate",
			BatchSize:  50,
			MaxRetries: 3,
			Timeout:    30 * time.Second,
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.SourceLanguage = strings.ToLower(mergeString(loaded.SourceLanguage, defaults.SourceLanguage))

	// Languages: a config naming only a source language still lists it.
	if len(loaded.Languages) > 0 {
		for _, lang := range loaded.Languages {
			result.Languages = append(result.Languages, strings.ToLower(lang))
		}
	} else {
		result.Languages = []string{result.SourceLanguage}
	}

	result.Paths = mergePathsConfig(loaded.Paths, defaults.Paths)
	result.Targets = mergeTargetsConfig(loaded.Targets, defaults.Targets)
	result.Keys = mergeKeysConfig(loaded.Keys, defaults.Keys)
	result.Reference = mergeReferenceConfig(loaded.Reference, defaults.Reference)
	result.State.Backend = mergeString(loaded.State.Backend, defaults.State.Backend)
	result.Translate = mergeTranslateConfig(loaded.Translate, defaults.Translate)

	return result
}

func mergeString(loaded, fallback string) string {
	if loaded != "" {
		return loaded
	}
	return fallback
}

func mergePathsConfig(loaded, defaults PathsConfig) PathsConfig {
	return PathsConfig{
		Src:        mergeString(loaded.Src, defaults.Src),
		Locales:    mergeString(loaded.Locales, defaults.Locales),
		State:      mergeString(loaded.State, defaults.State),
		Backups:    mergeString(loaded.Backups, defaults.Backups),
		I18nModule: mergeString(loaded.I18nModule, defaults.I18nModule),
	}
}

func mergeTargetsConfig(loaded, defaults TargetsConfig) TargetsConfig {
	result := TargetsConfig{}

	if len(loaded.FileNames) > 0 {
		result.FileNames = loaded.FileNames
	} else {
		result.FileNames = defaults.FileNames
	}

	if len(loaded.ExcludeDirs) > 0 {
		result.ExcludeDirs = loaded.ExcludeDirs
	} else {
		result.ExcludeDirs = defaults.ExcludeDirs
	}

	return result
}

func mergeKeysConfig(loaded, defaults KeysConfig) KeysConfig {
	return KeysConfig{
		FeatureMarker:   mergeString(loaded.FeatureMarker, defaults.FeatureMarker),
		SharedDir:       mergeString(loaded.SharedDir, defaults.SharedDir),
		FallbackFeature: mergeString(loaded.FallbackFeature, defaults.FallbackFeature),
		ReservedName:    mergeString(loaded.ReservedName, defaults.ReservedName),
		ReservedPrefix:  mergeString(loaded.ReservedPrefix, defaults.ReservedPrefix),
	}
}

func mergeReferenceConfig(loaded, defaults ReferenceConfig) ReferenceConfig {
	return ReferenceConfig{
		Namespace:      mergeString(loaded.Namespace, defaults.Namespace),
		Function:       mergeString(loaded.Function, defaults.Function),
		LegacyFunction: mergeString(loaded.LegacyFunction, defaults.LegacyFunction),
	}
}

func mergeTranslateConfig(loaded, defaults TranslateConfig) TranslateConfig {
	result := TranslateConfig{
		Provider: mergeString(loaded.Provider, defaults.Provider),
		Endpoint: mergeString(loaded.Endpoint, defaults.Endpoint),
	}

	if loaded.BatchSize != 0 {
		result.BatchSize = loaded.BatchSize
	} else {
		result.BatchSize = defaults.BatchSize
	}

	// MaxRetries: zero is indistinguishable from unset, so it keeps the default
	if loaded.MaxRetries != 0 {
		result.MaxRetries = loaded.MaxRetries
	} else {
		result.MaxRetries = defaults.MaxRetries
	}

	if loaded.Timeout != 0 {
		result.Timeout = loaded.Timeout
	} else {
		result.Timeout = defaults.Timeout
	}

	return result
}

// ValidProviders lists the supported machine translation providers
var ValidProviders = []string{"deepl"}

// IsValidProvider checks if the given provider is supported
func IsValidProvider(provider string) bool {
	for _, valid := range ValidProviders {
		if provider == valid {
			return true
		}
	}
	return false
}
