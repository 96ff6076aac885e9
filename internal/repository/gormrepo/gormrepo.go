// Package gormrepo implements the repository interfaces on top of gorm, so the
// notes API can run against MySQL or PostgreSQL as well as embedded SQLite.
//
// The schema comes from the gorm tags on the model types via AutoMigrate.
package gormrepo

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

var _ repository.Store = (*DB)(nil)

type DB struct {
	db *gorm.DB
}

// New opens a gorm session on dialector and migrates the schema.
// SQL warnings and slow queries are logged through log.
func New(dialector gorm.Dialector, log *slog.Logger) (*DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(
			slog.NewLogLogger(log.Handler(), slog.LevelWarn),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "gormrepo: opening database")
	}

	if err := db.AutoMigrate(&model.Note{}, &model.User{}); err != nil {
		return nil, pkgerrors.Wrap(err, "gormrepo: migrating schema")
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return pkgerrors.Wrap(err, "gormrepo: getting connection pool")
	}
	return sqlDB.Close()
}

func (d *DB) CreateNote(ctx context.Context, note *model.Note) error {
	note.ID = 0
	note.Timestamp = time.Now().UTC().Truncate(time.Millisecond)

	if err := d.db.WithContext(ctx).Create(note).Error; err != nil {
		return pkgerrors.Wrap(err, "gormrepo: creating note")
	}
	return nil
}

func (d *DB) GetNote(ctx context.Context, id int64) (*model.Note, error) {
	return firstNote(d.db.WithContext(ctx), id)
}

func firstNote(tx *gorm.DB, id int64) (*model.Note, error) {
	var n model.Note
	if err := tx.First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("note", strconv.FormatInt(id, 10))
		}
		return nil, pkgerrors.Wrapf(err, "gormrepo: getting note %d", id)
	}
	return &n, nil
}

func (d *DB) CountNotes(ctx context.Context, username string) (int, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("username = ?", username).
		Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "gormrepo: counting notes for %q", username)
	}
	return int(count), nil
}

func (d *DB) ListNotes(ctx context.Context, username string, opts repository.ListOptions) ([]model.Note, error) {
	notes := []model.Note{}
	if opts.Limit <= 0 {
		return notes, nil
	}

	err := d.db.WithContext(ctx).
		Where("username = ?", username).
		Order("id DESC").
		Limit(opts.Limit).
		Offset(max(opts.Offset, 0)).
		Find(&notes).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "gormrepo: listing notes")
	}
	if notes == nil {
		notes = []model.Note{}
	}
	return notes, nil
}

// UpdateNote writes only the columns set in patch. Last writer wins.
func (d *DB) UpdateNote(ctx context.Context, id int64, patch model.NotePatch) (*model.Note, error) {
	var updated *model.Note

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := firstNote(tx, id)
		if err != nil {
			return err
		}

		if !patch.Empty() {
			err := tx.Model(&model.Note{}).
				Where("id = ?", id).
				Updates(patchColumns(patch)).Error
			if err != nil {
				return pkgerrors.Wrapf(err, "gormrepo: updating note %d", id)
			}
			patch.Apply(n)
		}

		updated = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// patchColumns uses a map so that an explicit empty string is written;
// gorm skips zero values when updating from a struct.
func patchColumns(patch model.NotePatch) map[string]any {
	cols := make(map[string]any, 3)
	if patch.Title != nil {
		cols["title"] = *patch.Title
	}
	if patch.Body != nil {
		cols["body"] = *patch.Body
	}
	if patch.Category != nil {
		cols["category"] = *patch.Category
	}
	return cols
}

func (d *DB) DeleteNote(ctx context.Context, id int64) (*model.Note, error) {
	var deleted *model.Note

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := firstNote(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&model.Note{}, id).Error; err != nil {
			return pkgerrors.Wrapf(err, "gormrepo: deleting note %d", id)
		}
		deleted = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

func (d *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = 0
	if err := d.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("user", user.Username)
		}
		return pkgerrors.Wrapf(err, "gormrepo: creating user %q", user.Username)
	}
	return nil
}

func (d *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := d.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, pkgerrors.Wrapf(err, "gormrepo: getting user %q", username)
	}
	return &u, nil
}
