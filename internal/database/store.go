package database

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"attendance/internal/config"
	"attendance/internal/docstore"
	"attendance/internal/repository"
)

// OpenStore builds the record store for the configured storage driver. The
// returned func releases whatever the backend holds open.
func OpenStore(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (*docstore.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		if err := checkPoolSize(cfg.Postgres); err != nil {
			return nil, nil, err
		}
		pool, err := NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, nil, err
		}
		backend := docstore.NewPostgresBackend(pool)
		if err := backend.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		locks := docstore.NewLockManager(docstore.WithProcessLocks(backend))
		return docstore.New(backend, locks, log), pool.Close, nil

	case config.StorageDriverFile, "":
		dir, err := filepath.Abs(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve data dir: %w", err)
		}
		backend, err := docstore.NewFileBackend(afero.NewOsFs(), dir)
		if err != nil {
			return nil, nil, err
		}

		var opts []docstore.LockOption
		if cfg.Storage.FileLocks {
			opts = append(opts, docstore.WithFileLocks(filepath.Join(dir, ".locks")))
		}
		log.Info().Str("dir", dir).Bool("file_locks", cfg.Storage.FileLocks).Msg("file storage ready")
		return docstore.New(backend, docstore.NewLockManager(opts...), log), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// checkPoolSize rejects pools that locked sections could exhaust: every
// collection may hold one connection for its advisory lock while Load or Save
// needs another.
func checkPoolSize(cfg config.PostgresConfig) error {
	if limit := len(repository.Collections); cfg.MaxOpen <= limit {
		return fmt.Errorf("postgres.maxopen must be greater than %d, got %d", limit, cfg.MaxOpen)
	}
	return nil
}
