package repository

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicate is returned when a write violates a unique index.
var ErrDuplicate = errors.New("record violates a unique constraint")

// DBProvider hands out database sessions. *frame.Service satisfies it.
type DBProvider interface {
	DB(ctx context.Context, readOnly bool) *gorm.DB
}

type gormProvider struct {
	db *gorm.DB
}

// NewGormProvider wraps a plain gorm connection, used outside the frame runtime.
func NewGormProvider(db *gorm.DB) DBProvider {
	return &gormProvider{db: db}
}

func (p *gormProvider) DB(ctx context.Context, _ bool) *gorm.DB {
	return p.db.WithContext(ctx)
}

type abstractRepository struct {
	provider DBProvider
}

func (ar *abstractRepository) readDB(ctx context.Context) *gorm.DB {
	return ar.provider.DB(ctx, true)
}

func (ar *abstractRepository) writeDB(ctx context.Context) *gorm.DB {
	return ar.provider.DB(ctx, false)
}

func (ar *abstractRepository) lockDB(ctx context.Context) *gorm.DB {
	return ar.writeDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

// IsNotFound reports whether err means the looked up row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func translateWriteError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return errors.Wrap(ErrDuplicate, msg)
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
