// Package storage opens the repository.Store selected by configuration.
package storage

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sakif/notes-api/internal/config"
	"github.com/sakif/notes-api/internal/repository"
	"github.com/sakif/notes-api/internal/repository/gormrepo"
	"github.com/sakif/notes-api/internal/repository/sqlite"
)

// Open returns the store for cfg.DBDriver. It is called once at startup;
// the caller owns the store and must Close it.
func Open(cfg config.Config, log *slog.Logger) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite, "":
		return openSQLite(cfg.DBPath)
	case config.DriverMySQL, config.DriverPostgres:
		dialector, err := Dialector(cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store, err := gormrepo.New(dialector, log)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s store", cfg.DBDriver)
		}
		return store, nil
	default:
		return nil, errors.Errorf("storage: unsupported driver %q", cfg.DBDriver)
	}
}

// Dialector maps a server driver name to the gorm dialector for dsn.
// MySQL DSNs need parseTime=true for the timestamp column to scan.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	if dsn == "" {
		return nil, errors.Errorf("storage: %s requires a DSN", driver)
	}
	switch driver {
	case config.DriverMySQL:
		return mysql.Open(dsn), nil
	case config.DriverPostgres:
		return postgres.Open(dsn), nil
	default:
		return nil, errors.Errorf("storage: no gorm dialector for %q", driver)
	}
}

func openSQLite(path string) (repository.Store, error) {
	if path != ":memory:" {
		// sqlite creates the file but not its directory.
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "storage: creating data directory")
		}
	}
	store, err := sqlite.New(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite store")
	}
	return store, nil
}
