// Package catalog manages the product catalog.
package catalog

import (
	"context"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/internal/repository"
)

const (
	maxNameLength = 120
	// MaxAmount bounds price and stock to a 32-bit integer column.
	MaxAmount = math.MaxInt32
)

// ProductInput is the payload for creating a product.
type ProductInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Price    *int64 `json:"price" validate:"required,gte=0,max=2147483647"`
	Quantity *int64 `json:"quantity" validate:"required,gte=0,max=2147483647"`
}

// ProductPatch carries optional product updates. Nil fields are left unchanged.
type ProductPatch struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	Price    *int64  `json:"price" validate:"omitempty,gte=0,max=2147483647"`
	Quantity *int64  `json:"quantity" validate:"omitempty,gte=0,max=2147483647"`
}

type Service struct {
	repo         repository.CatalogRepository
	defaultLimit int
	maxLimit     int
}

func NewService(repo repository.CatalogRepository, defaultLimit, maxLimit int) *Service {
	return &Service{repo: repo, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.Validation("INVALID_NAME", "The name field is required.")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return domain.Validation("INVALID_NAME", "The name must not be greater than 120 characters.")
	}
	return nil
}

func checkAmount(field string, v int64) error {
	if v < 0 {
		return domain.Validation("INVALID_"+strings.ToUpper(field), "The "+field+" must be at least 0.")
	}
	if v > MaxAmount {
		return domain.Validation("INVALID_"+strings.ToUpper(field),
			"The "+field+" must not be greater than "+strconv.Itoa(MaxAmount)+".")
	}
	return nil
}

func (s *Service) List(ctx context.Context, q repository.ListQuery) ([]domain.Product, int64, repository.ListQuery, error) {
	q, err := q.Normalize(repository.ProductSortColumns, s.defaultLimit, s.maxLimit)
	if err != nil {
		return nil, 0, q, err
	}
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, q, domain.Internal(err)
	}
	return rows, total, q, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.AsError(err)
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, caller domain.Caller, in ProductInput) (*domain.Product, error) {
	if !caller.Role.CanManageCatalog() {
		return nil, domain.ErrUnauthorized
	}
	if in.Price == nil || in.Quantity == nil {
		return nil, domain.Validation("INVALID_PRODUCT", "The price and quantity fields are required.")
	}
	if err := checkName(in.Name); err != nil {
		return nil, err
	}
	if err := checkAmount("price", *in.Price); err != nil {
		return nil, err
	}
	if err := checkAmount("quantity", *in.Quantity); err != nil {
		return nil, err
	}

	p := &domain.Product{Name: in.Name, Price: *in.Price, Quantity: *in.Quantity}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, domain.Internal(err)
	}
	zap.L().Info("product created", zap.Int64("product_id", p.ID), zap.Int64("by", caller.UserID))
	return p, nil
}

func (s *Service) Update(ctx context.Context, caller domain.Caller, id int64, patch ProductPatch) (*domain.Product, error) {
	if !caller.Role.CanManageCatalog() {
		return nil, domain.ErrUnauthorized
	}
	updates := map[string]interface{}{}
	if patch.Name != nil {
		if err := checkName(*patch.Name); err != nil {
			return nil, err
		}
		updates["name"] = *patch.Name
	}
	if patch.Price != nil {
		if err := checkAmount("price", *patch.Price); err != nil {
			return nil, err
		}
		updates["price"] = *patch.Price
	}
	if patch.Quantity != nil {
		if err := checkAmount("quantity", *patch.Quantity); err != nil {
			return nil, err
		}
		updates["quantity"] = *patch.Quantity
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.AsError(err)
	}
	if len(updates) == 0 {
		return p, nil
	}
	if err := s.repo.Update(ctx, p, updates); err != nil {
		return nil, domain.AsError(err)
	}
	zap.L().Info("product updated", zap.Int64("product_id", p.ID), zap.Int64("by", caller.UserID))
	return p, nil
}

// Delete soft-deletes a product. Ledger rows that reference it are kept.
func (s *Service) Delete(ctx context.Context, caller domain.Caller, id int64) error {
	if !caller.Role.CanManageCatalog() {
		return domain.ErrUnauthorized
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return domain.AsError(err)
	}
	zap.L().Info("product deleted", zap.Int64("product_id", id), zap.Int64("by", caller.UserID))
	return nil
}
