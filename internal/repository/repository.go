package repository

import (
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrNotFound is returned by updates and deletes that matched no row.
// Lookups return (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

// Transactor runs fn inside a database transaction. Repositories built with
// WithTx(tx) inside fn share it.
type Transactor interface {
	InTx(fn func(tx *gorm.DB) error) error
}

type GormTransactor struct {
	db *gorm.DB
}

func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

func (t *GormTransactor) InTx(fn func(tx *gorm.DB) error) error {
	return t.db.Transaction(fn)
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.GetLevel())
	return logger
}
