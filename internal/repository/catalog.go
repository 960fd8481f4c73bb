package repository

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agunghasbi/be-ekuator/internal/domain"
)

// CatalogRepository handles product storage. Soft-deleted products are
// invisible to every method.
type CatalogRepository interface {
	List(ctx context.Context, q ListQuery) ([]domain.Product, int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// GetForUpdate reads a product and, where the database supports it,
	// holds a row lock until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*domain.Product, error)

	Create(ctx context.Context, p *domain.Product) error

	// Update applies column updates and reloads p.
	Update(ctx context.Context, p *domain.Product, updates map[string]interface{}) error

	// Delete soft-deletes a product.
	Delete(ctx context.Context, id int64) error

	// DecrementStock subtracts quantity only while enough stock remains.
	DecrementStock(ctx context.Context, id, quantity int64) error
}

// GormCatalogRepository is the GORM implementation of CatalogRepository
type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) List(ctx context.Context, q ListQuery) ([]domain.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	rows := make([]domain.Product, 0, q.Limit)
	err := r.db.WithContext(ctx).
		Order(q.OrderClause()).
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "query products")
	}
	return rows, total, nil
}

func (r *GormCatalogRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *GormCatalogRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	db := r.db.WithContext(ctx)
	if strings.EqualFold(db.Dialector.Name(), "postgres") {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(db, id)
}

func (r *GormCatalogRepository) first(db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	err := db.Where("id = ?", id).First(&p).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.ErrProductNotFound
	case err != nil:
		return nil, errors.Wrapf(err, "query product %d", id)
	}
	return &p, nil
}

func (r *GormCatalogRepository) Create(ctx context.Context, p *domain.Product) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(p).Error, "create product")
}

func (r *GormCatalogRepository) Update(ctx context.Context, p *domain.Product, updates map[string]interface{}) error {
	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := r.db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
			return errors.Wrapf(err, "update product %d", p.ID)
		}
	}
	reloaded, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *reloaded
	return nil
}

func (r *GormCatalogRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete product %d", id)
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *GormCatalogRepository) DecrementStock(ctx context.Context, id, quantity int64) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "decrement stock of product %d", id)
	}
	if res.RowsAffected == 0 {
		return domain.ErrExceedsStock
	}
	return nil
}
