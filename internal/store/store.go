// Package store implements the messenger persistence gateway on gorm and
// postgres.
package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/petermazzocco/go-messenger/internal/messenger"
	"github.com/petermazzocco/go-messenger/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func Open(dsn string, log logger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: log})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table. The chat membership table is a
// custom join table so it has to be registered before migrating.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Chat{}, "Members", &models.ChatMember{}); err != nil {
		return fmt.Errorf("setup chat members join table: %w", err)
	}
	if err := db.AutoMigrate(
		&models.Attachment{},
		&models.User{},
		&models.Chat{},
		&models.ChatMember{},
		&models.Message{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// translate maps driver errors onto the messenger gateway contract.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return messenger.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", messenger.ErrDuplicate, pgErr.ConstraintName)
		case foreignKeyViolation:
			return fmt.Errorf("%w: %s", messenger.ErrReference, pgErr.ConstraintName)
		}
	}
	return err
}

// affected turns a write that matched nothing into ErrNotFound.
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return messenger.ErrNotFound
	}
	return nil
}

func exists(db *gorm.DB) (bool, error) {
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}
