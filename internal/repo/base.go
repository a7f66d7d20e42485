// Package repo holds the connection plumbing shared by the gorm repositories.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/pagination"
)

// Base binds a repository to a connection or an open transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Tx returns a copy of b running on tx.
func (b Base) Tx(tx *gorm.DB) Base {
	return Base{db: tx}
}

// Window applies a normalized limit/offset to q.
func Window(q *gorm.DB, params pagination.Params) *gorm.DB {
	params = params.Normalize()
	return q.Limit(params.Limit).Offset(params.Offset)
}

// IgnoreNotFound maps gorm's not-found sentinel to (false, nil).
func IgnoreNotFound(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}
