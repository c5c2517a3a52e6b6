package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the gorm handle the domain repositories embed. It exists so
// WithTx rebinding and context scoping work the same way everywhere.
type Base struct {
	db *gorm.DB
}

// NewBase binds a Base to a connection or an open transaction.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the handle scoped to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
