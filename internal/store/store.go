package store

import (
	"errors"
	"fmt"

	"github.com/petermazzocco/snapgram/internal/backend"
	"github.com/petermazzocco/snapgram/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the gorm-backed document store.
type Store struct {
	db *gorm.DB
}

var _ backend.DocumentStore = (*Store)(nil)

// Open connects through dialector and migrates every model.
func Open(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}
	return New(db), nil
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return backend.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", backend.ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", backend.ErrBackend, err)
	}
}

// affected maps a write that matched no rows to ErrNotFound.
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return backend.ErrNotFound
	}
	return nil
}
