package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
	file    string
}

// NewLoader creates a loader reading <rootDir>/.crud/config.{yml,yaml}.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader creates a loader reading an explicit config file, which must exist.
func NewFileLoader(path string) Loader {
	return &loader{file: path}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CRUD_*)
// 2. Config file
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.file != "" {
		v.SetConfigFile(l.file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".crud"))
	}

	// CRUD_DATABASE_DSN overrides database.dsn and so on
	v.SetEnvPrefix("CRUD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"database.driver",
		"database.dsn",
		"database.schema",
		"compiler.cache_capacity",
		"compiler.max_optional",
		"compiler.placeholder",
		"compiler.actions_file",
		"logging.level",
		"logging.format",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing project config is fine: defaults + env vars apply
		var notFound viper.ConfigFileNotFoundError
		if l.file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("database.driver", defaults.Database.Driver)
	v.SetDefault("database.dsn", defaults.Database.DSN)
	v.SetDefault("database.schema", defaults.Database.Schema)

	v.SetDefault("compiler.cache_capacity", defaults.Compiler.CacheCapacity)
	v.SetDefault("compiler.max_optional", defaults.Compiler.MaxOptional)
	v.SetDefault("compiler.placeholder", defaults.Compiler.Placeholder)
	v.SetDefault("compiler.actions_file", defaults.Compiler.ActionsFile)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
