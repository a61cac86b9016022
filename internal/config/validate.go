package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brianwhu/xillium-sub000/internal/logging"
	"github.com/brianwhu/xillium-sub000/internal/storage"
)

var (
	// ErrInvalidDriver indicates an unsupported database driver
	ErrInvalidDriver = errors.New("invalid database driver")

	// ErrEmptyDSN indicates a missing data source name
	ErrEmptyDSN = errors.New("empty database dsn")

	// ErrInvalidCacheCapacity indicates a negative cache capacity
	ErrInvalidCacheCapacity = errors.New("invalid cache capacity")

	// ErrInvalidMaxOptional indicates an out-of-range optional column limit
	ErrInvalidMaxOptional = errors.New("invalid max optional")

	// ErrInvalidPlaceholder indicates an unknown placeholder format
	ErrInvalidPlaceholder = errors.New("invalid placeholder format")

	// ErrInvalidLogging indicates an unknown log level or format
	ErrInvalidLogging = errors.New("invalid logging settings")
)

// maxOptionalLimit caps the SEARCH fan-out at 2^16 variants.
const maxOptionalLimit = 16

var supportedDrivers = map[string]bool{
	storage.DriverSQLite3:  true,
	storage.DriverSQLite:   true,
	storage.DriverPostgres: true,
	storage.DriverMySQL:    true,
}

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateDatabase(&cfg.Database); err != nil {
		errs = append(errs, err)
	}

	if err := validateCompiler(&cfg.Compiler); err != nil {
		errs = append(errs, err)
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateDatabase(cfg *DatabaseConfig) error {
	var errs []error

	if !supportedDrivers[storage.DriverName(cfg.Driver)] {
		errs = append(errs, fmt.Errorf("%w: must be sqlite3, sqlite, postgres or mysql, got '%s'", ErrInvalidDriver, cfg.Driver))
	}

	if strings.TrimSpace(cfg.DSN) == "" {
		errs = append(errs, fmt.Errorf("%w: dsn is required", ErrEmptyDSN))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateCompiler(cfg *CompilerConfig) error {
	var errs []error

	// Zero falls back to the default capacity
	if cfg.CacheCapacity < 0 {
		errs = append(errs, fmt.Errorf("%w: cache_capacity cannot be negative, got %d", ErrInvalidCacheCapacity, cfg.CacheCapacity))
	}

	if cfg.MaxOptional < 1 || cfg.MaxOptional > maxOptionalLimit {
		errs = append(errs, fmt.Errorf("%w: max_optional must be between 1 and %d, got %d", ErrInvalidMaxOptional, maxOptionalLimit, cfg.MaxOptional))
	}

	if p := strings.ToLower(cfg.Placeholder); p != "" {
		if _, ok := placeholders[p]; !ok {
			errs = append(errs, fmt.Errorf("%w: must be question, dollar, colon or atp, got '%s'", ErrInvalidPlaceholder, cfg.Placeholder))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	var errs []error

	if _, err := logging.ParseLevel(cfg.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidLogging, err))
	}

	switch strings.ToLower(cfg.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("%w: format must be 'text' or 'json', got '%s'", ErrInvalidLogging, cfg.Format))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
