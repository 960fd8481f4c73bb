package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/pkg/common"
)

// LedgerScope restricts ledger reads. A zero OwnerID means unrestricted.
type LedgerScope struct {
	OwnerID int64
}

// LedgerRepository stores purchase transactions. It is append-only: there
// is no update method.
type LedgerRepository interface {
	// Append inserts a new entry, assigning an id when none is set.
	Append(ctx context.Context, tx *domain.Transaction) error
	List(ctx context.Context, scope LedgerScope, q ListQuery) ([]domain.Transaction, int64, error)
	GetByID(ctx context.Context, scope LedgerScope, id int64) (*domain.Transaction, error)
}

// GormLedgerRepository is the GORM implementation of LedgerRepository
type GormLedgerRepository struct {
	db *gorm.DB
}

func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

func (r *GormLedgerRepository) scoped(ctx context.Context, scope LedgerScope) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&domain.Transaction{})
	if scope.OwnerID != 0 {
		db = db.Where("user_id = ?", scope.OwnerID)
	}
	return db
}

func (r *GormLedgerRepository) Append(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == 0 {
		tx.ID = common.UUIDint64()
	}
	return errors.Wrap(r.db.WithContext(ctx).Create(tx).Error, "append transaction")
}

func (r *GormLedgerRepository) List(ctx context.Context, scope LedgerScope, q ListQuery) ([]domain.Transaction, int64, error) {
	var total int64
	if err := r.scoped(ctx, scope).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count transactions")
	}

	rows := make([]domain.Transaction, 0, q.Limit)
	err := r.scoped(ctx, scope).
		Order(q.OrderClause()).
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "query transactions")
	}
	return rows, total, nil
}

func (r *GormLedgerRepository) GetByID(ctx context.Context, scope LedgerScope, id int64) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := r.scoped(ctx, scope).Where("id = ?", id).First(&tx).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.ErrTransactionNotFound
	case err != nil:
		return nil, errors.Wrapf(err, "query transaction %d", id)
	}
	return &tx, nil
}
