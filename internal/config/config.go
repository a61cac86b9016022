// Package config loads crudc configuration.
//
// Configuration hierarchy (highest to lowest priority):
//  1. Environment variables (CRUD_*, nested keys joined by '_', e.g. CRUD_DATABASE_DSN)
//  2. Project config (.crud/config.yml or .crud/config.yaml)
//  3. Built-in defaults
package config

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/brianwhu/xillium-sub000/internal/cache"
	"github.com/brianwhu/xillium-sub000/internal/storage"
)

// Config represents the complete crudc configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Compiler CompilerConfig `yaml:"compiler" mapstructure:"compiler"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`

	// Aliases renames request fields: table -> column -> field name.
	Aliases map[string]map[string]string `yaml:"aliases" mapstructure:"aliases"`

	// Constraints maps constraint names to application error messages.
	Constraints map[string]string `yaml:"constraints" mapstructure:"constraints"`
}

// DatabaseConfig selects the database whose schema is introspected.
type DatabaseConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // sqlite3, sqlite, postgres or mysql
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
	Schema string `yaml:"schema" mapstructure:"schema"` // information_schema schema; empty means the driver default
}

// CompilerConfig tunes statement compilation.
type CompilerConfig struct {
	CacheCapacity int    `yaml:"cache_capacity" mapstructure:"cache_capacity"` // max cached commands
	MaxOptional   int    `yaml:"max_optional" mapstructure:"max_optional"`     // max optional SEARCH columns
	Placeholder   string `yaml:"placeholder" mapstructure:"placeholder"`       // question, dollar, colon, atp; empty picks by driver
	ActionsFile   string `yaml:"actions_file" mapstructure:"actions_file"`     // YAML action catalog
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: storage.DriverSQLite3,
			DSN:    "crud.db",
		},
		Compiler: CompilerConfig{
			CacheCapacity: cache.DefaultCapacity,
			MaxOptional:   10,
			ActionsFile:   ".crud/actions.yml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Aliases:     map[string]map[string]string{},
		Constraints: map[string]string{},
	}
}

var placeholders = map[string]sq.PlaceholderFormat{
	"question": sq.Question,
	"dollar":   sq.Dollar,
	"colon":    sq.Colon,
	"atp":      sq.AtP,
}

// PlaceholderFormat returns the bind parameter format for the configured
// database: the explicit setting, else '$n' for PostgreSQL and '?' otherwise.
func (c *Config) PlaceholderFormat() sq.PlaceholderFormat {
	if f, ok := placeholders[strings.ToLower(c.Compiler.Placeholder)]; ok {
		return f
	}
	if storage.DriverName(c.Database.Driver) == storage.DriverPostgres {
		return sq.Dollar
	}
	return sq.Question
}
