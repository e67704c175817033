package repository

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"elearning/backend/models"
)

// AutoMigrate creates or updates every table used by the GORM backend.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.Course{},
		&models.Lecture{},
		&models.Progress{},
		&models.ProgressLecture{},
		&models.Payment{},
	)
	return pkgerrors.Wrap(err, "auto migrate")
}

func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:    &gormUsers{db: db},
		Courses:  &gormCourses{db: db},
		Lectures: &gormLectures{db: db},
		Progress: &gormProgress{db: db},
		Payments: &gormPayments{db: db},
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

func gormErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return ErrDuplicate
	default:
		return pkgerrors.Wrap(err, op)
	}
}

// isUniqueViolation covers drivers that do not translate errors for gorm.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
