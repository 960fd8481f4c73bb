package repository

import (
	"context"

	"gorm.io/gorm"
)

// Stores are the repositories bound to one unit of work.
type Stores struct {
	Catalog CatalogRepository
	Ledger  LedgerRepository
}

// UnitOfWork runs fn inside a single database transaction. The transaction
// commits when fn returns nil and rolls back when fn returns an error or panics.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(s Stores) error) error
}

type GormUnitOfWork struct {
	db *gorm.DB
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) Do(ctx context.Context, fn func(s Stores) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Stores{
			Catalog: NewGormCatalogRepository(tx),
			Ledger:  NewGormLedgerRepository(tx),
		})
	})
}
