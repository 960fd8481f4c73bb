// Package purchase records product purchases in the transaction ledger.
package purchase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/internal/pricing"
	"github.com/agunghasbi/be-ekuator/internal/repository"
	"github.com/agunghasbi/be-ekuator/pkg/metrics"
)

// Recorder receives one observation per purchase attempt that reached the
// stock check.
type Recorder interface {
	ObserveCheckout(result string, total int64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCheckout(string, int64) {}

type Service struct {
	uow          repository.UnitOfWork
	ledger       repository.LedgerRepository
	calc         *pricing.Calculator
	recorder     Recorder
	defaultLimit int
	maxLimit     int
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithPageSizes(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		s.defaultLimit = defaultLimit
		s.maxLimit = maxLimit
	}
}

func NewService(uow repository.UnitOfWork, ledger repository.LedgerRepository, calc *pricing.Calculator, opts ...Option) *Service {
	s := &Service{
		uow:          uow,
		ledger:       ledger,
		calc:         calc,
		recorder:     nopRecorder{},
		defaultLimit: 10,
		maxLimit:     100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create buys quantity units of a product for the caller. Stock is
// decremented and the ledger entry written in one database transaction.
func (s *Service) Create(ctx context.Context, caller domain.Caller, productID, quantity int64) (*domain.Transaction, error) {
	if !caller.Role.CanPurchase() {
		return nil, domain.ErrUnauthorized
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var entry *domain.Transaction
	err := s.uow.Do(ctx, func(st repository.Stores) error {
		product, err := st.Catalog.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if quantity > product.Quantity {
			if product.Quantity == 0 {
				return domain.ErrOutOfStock
			}
			return domain.ErrExceedsStock
		}

		quote, err := s.calc.Quote(product.Price, quantity)
		if err != nil {
			return err
		}
		if err := st.Catalog.DecrementStock(ctx, product.ID, quantity); err != nil {
			return err
		}
		entry = &domain.Transaction{
			UserID:    caller.UserID,
			ProductID: product.ID,
			Price:     quote.UnitPrice,
			Quantity:  quote.Quantity,
			Tax:       quote.Tax,
			AdminFee:  quote.AdminFee,
			Total:     quote.Total,
		}
		return st.Ledger.Append(ctx, entry)
	})

	if err != nil {
		var de *domain.Error
		switch {
		case errors.Is(err, domain.ErrOutOfStock), errors.Is(err, domain.ErrExceedsStock):
			s.recorder.ObserveCheckout(metrics.ResultConflict, 0)
			zap.L().Warn("purchase rejected",
				zap.Int64("user_id", caller.UserID),
				zap.Int64("product_id", productID),
				zap.Int64("quantity", quantity),
				zap.String("reason", domain.AsError(err).Code))
			return nil, err
		case errors.As(err, &de):
			return nil, err
		}
		s.recorder.ObserveCheckout(metrics.ResultFailure, 0)
		zap.L().Error("purchase rolled back",
			zap.Int64("user_id", caller.UserID),
			zap.Int64("product_id", productID),
			zap.Error(err))
		return nil, domain.Internal(err)
	}

	s.recorder.ObserveCheckout(metrics.ResultSuccess, entry.Total)
	zap.L().Info("purchase committed",
		zap.Int64("transaction_id", entry.ID),
		zap.Int64("user_id", entry.UserID),
		zap.Int64("product_id", entry.ProductID),
		zap.Int64("quantity", entry.Quantity),
		zap.Int64("total", entry.Total))
	return entry, nil
}

func (s *Service) scope(caller domain.Caller) repository.LedgerScope {
	if caller.Role.SeesOwnTransactionsOnly() {
		return repository.LedgerScope{OwnerID: caller.UserID}
	}
	return repository.LedgerScope{}
}

// List pages through the ledger. Customers only see their own entries.
func (s *Service) List(ctx context.Context, caller domain.Caller, q repository.ListQuery) ([]domain.Transaction, int64, repository.ListQuery, error) {
	q, err := q.Normalize(repository.TransactionSortColumns, s.defaultLimit, s.maxLimit)
	if err != nil {
		return nil, 0, q, err
	}
	rows, total, err := s.ledger.List(ctx, s.scope(caller), q)
	if err != nil {
		return nil, 0, q, domain.Internal(err)
	}
	return rows, total, q, nil
}

func (s *Service) Get(ctx context.Context, caller domain.Caller, id int64) (*domain.Transaction, error) {
	tx, err := s.ledger.GetByID(ctx, s.scope(caller), id)
	if err != nil {
		return nil, domain.AsError(err)
	}
	return tx, nil
}
