package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/brianwhu/xillium-sub000/internal/cache"
	"github.com/brianwhu/xillium-sub000/internal/crud"
	"github.com/brianwhu/xillium-sub000/internal/schema"
	"github.com/brianwhu/xillium-sub000/internal/storage"
)

// session holds the database and compiler shared by one command run.
type session struct {
	db       *sql.DB
	compiler *crud.Compiler
}

// openSession connects to the configured database and builds a compiler
// over its schema.
func openSession() (*session, error) {
	db, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	introspector := schema.ForDriver(storage.DriverName(cfg.Database.Driver), db, cfg.Database.Schema)
	compiler := crud.NewCompiler(introspector,
		crud.WithAliases(cfg.Aliases),
		crud.WithPlaceholder(cfg.PlaceholderFormat()),
		crud.WithMaxOptional(cfg.Compiler.MaxOptional),
		crud.WithCache(cache.New[*crud.Command](cfg.Compiler.CacheCapacity)),
		crud.WithLogger(logger),
		crud.WithConstraintMessages(cfg.Constraints),
	)

	logger.Debug("opened database", "driver", cfg.Database.Driver)
	return &session{db: db, compiler: compiler}, nil
}

// Close releases the compiler and the database.
func (s *session) Close() error {
	s.compiler.Close()
	return s.db.Close()
}

// loadCatalog reads the action catalog at path, defaulting to the configured
// file. A missing default catalog yields an empty catalog.
func loadCatalog(path string) (crud.Catalog, error) {
	explicit := path != ""
	if !explicit {
		path = cfg.Compiler.ActionsFile
	}

	catalog, err := crud.LoadActionsFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no action catalog", "path", path)
			return crud.Catalog{}, nil
		}
		return nil, err
	}
	return catalog, nil
}

// createOutput opens path for writing, or returns stdout for "" and "-".
func createOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}
