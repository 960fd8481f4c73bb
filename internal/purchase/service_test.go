package purchase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/internal/pricing"
	"github.com/agunghasbi/be-ekuator/internal/repository"
	"github.com/agunghasbi/be-ekuator/internal/repository/repotest"
	"github.com/agunghasbi/be-ekuator/pkg/metrics"
)

type spyRecorder struct {
	mu     sync.Mutex
	counts map[string]int
	total  int64
}

func (r *spyRecorder) ObserveCheckout(result string, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[result]++
	r.total += total
}

type failingLedger struct {
	repository.LedgerRepository
}

func (failingLedger) Append(context.Context, *domain.Transaction) error {
	return assert.AnError
}

// brokenLedgerUnitOfWork commits stock changes through gorm but fails every ledger insert.
type brokenLedgerUnitOfWork struct {
	db *gorm.DB
}

func (u brokenLedgerUnitOfWork) Do(ctx context.Context, fn func(s repository.Stores) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repository.Stores{
			Catalog: repository.NewGormCatalogRepository(tx),
			Ledger:  failingLedger{},
		})
	})
}

type PurchaseTestSuite struct {
	suite.Suite
	db       *gorm.DB
	svc      *Service
	recorder *spyRecorder
	customer domain.Caller
	admin    domain.Caller
	ctx      context.Context
}

func (s *PurchaseTestSuite) SetupTest() {
	s.db = repotest.NewDB(s.T())
	s.recorder = &spyRecorder{}
	s.svc = NewService(
		repository.NewGormUnitOfWork(s.db),
		repository.NewGormLedgerRepository(s.db),
		pricing.Default(),
		WithRecorder(s.recorder),
		WithPageSizes(10, 100),
	)
	cust := repotest.SeedUser(s.T(), s.db, domain.RoleCustomer)
	adm := repotest.SeedUser(s.T(), s.db, domain.RoleAdmin)
	s.customer = domain.Caller{UserID: cust.ID, Role: domain.RoleCustomer}
	s.admin = domain.Caller{UserID: adm.ID, Role: domain.RoleAdmin}
	s.ctx = context.Background()
}

func (s *PurchaseTestSuite) stock(id int64) int64 {
	var p domain.Product
	s.Require().NoError(s.db.First(&p, id).Error)
	return p.Quantity
}

func (s *PurchaseTestSuite) ledgerCount() int64 {
	var n int64
	s.Require().NoError(s.db.Model(&domain.Transaction{}).Count(&n).Error)
	return n
}

func (s *PurchaseTestSuite) TestCreateCommitsStockAndLedger() {
	p := repotest.SeedProduct(s.T(), s.db, "Kopi", 1000, 5)

	tx, err := s.svc.Create(s.ctx, s.customer, p.ID, 2)
	s.Require().NoError(err)
	s.NotZero(tx.ID)
	s.Equal(s.customer.UserID, tx.UserID)
	s.Equal(p.ID, tx.ProductID)
	s.Equal(int64(1000), tx.Price)
	s.Equal(int64(2), tx.Quantity)
	s.Equal(int64(200), tx.Tax)
	s.Equal(int64(110), tx.AdminFee)
	s.Equal(int64(2310), tx.Total)

	s.Equal(int64(3), s.stock(p.ID))
	s.Equal(int64(1), s.ledgerCount())
	s.Equal(1, s.recorder.counts[metrics.ResultSuccess])
	s.Equal(int64(2310), s.recorder.total)
}

func (s *PurchaseTestSuite) TestLedgerKeepsPriceAtPurchase() {
	p := repotest.SeedProduct(s.T(), s.db, "Teh", 500, 5)
	tx, err := s.svc.Create(s.ctx, s.customer, p.ID, 1)
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(&domain.Product{}).Where("id = ?", p.ID).Update("price", 900).Error)

	got, err := s.svc.Get(s.ctx, s.customer, tx.ID)
	s.Require().NoError(err)
	s.Equal(int64(500), got.Price)
	s.Equal(int64(577), got.Total)
}

func (s *PurchaseTestSuite) TestStockConflicts() {
	empty := repotest.SeedProduct(s.T(), s.db, "Habis", 1000, 0)
	few := repotest.SeedProduct(s.T(), s.db, "Sedikit", 1000, 2)

	_, err := s.svc.Create(s.ctx, s.customer, empty.ID, 1)
	s.ErrorIs(err, domain.ErrOutOfStock)
	s.Equal("Product out of stock!", domain.AsError(err).Message)

	_, err = s.svc.Create(s.ctx, s.customer, few.ID, 3)
	s.ErrorIs(err, domain.ErrExceedsStock)
	s.Equal(domain.KindConflict, domain.KindOf(err))

	s.Equal(int64(2), s.stock(few.ID))
	s.Equal(int64(0), s.ledgerCount())
	s.Equal(2, s.recorder.counts[metrics.ResultConflict])
}

func (s *PurchaseTestSuite) TestGuardsRunBeforeLookup() {
	p := repotest.SeedProduct(s.T(), s.db, "Roti", 1000, 0)

	_, err := s.svc.Create(s.ctx, s.admin, p.ID, 1)
	s.ErrorIs(err, domain.ErrUnauthorized)

	// quantity is checked before the stock guard
	for _, q := range []int64{0, -3} {
		_, err = s.svc.Create(s.ctx, s.customer, p.ID, q)
		s.ErrorIs(err, domain.ErrInvalidQuantity)
	}

	_, err = s.svc.Create(s.ctx, s.customer, 999999, 1)
	s.ErrorIs(err, domain.ErrProductNotFound)

	s.Empty(s.recorder.counts)
}

func (s *PurchaseTestSuite) TestDeletedProductCannotBeBought() {
	p := repotest.SeedProduct(s.T(), s.db, "Lama", 1000, 5)
	s.Require().NoError(s.db.Delete(&domain.Product{}, p.ID).Error)

	_, err := s.svc.Create(s.ctx, s.customer, p.ID, 1)
	s.ErrorIs(err, domain.ErrProductNotFound)
}

func (s *PurchaseTestSuite) TestLedgerFailureRollsBackStock() {
	p := repotest.SeedProduct(s.T(), s.db, "Gula", 1000, 5)
	svc := NewService(brokenLedgerUnitOfWork{db: s.db}, repository.NewGormLedgerRepository(s.db), pricing.Default(), WithRecorder(s.recorder))

	_, err := svc.Create(s.ctx, s.customer, p.ID, 2)
	s.Require().Error(err)
	de := domain.AsError(err)
	s.Equal(domain.KindInternal, de.Kind)
	s.ErrorIs(err, assert.AnError)

	s.Equal(int64(5), s.stock(p.ID))
	s.Equal(int64(0), s.ledgerCount())
	s.Equal(1, s.recorder.counts[metrics.ResultFailure])
}

func (s *PurchaseTestSuite) TestOverflowingTotalIsRejected() {
	p := repotest.SeedProduct(s.T(), s.db, "Emas", 5_000_000_000_000_000_000, 5)

	_, err := s.svc.Create(s.ctx, s.customer, p.ID, 2)
	s.Require().Error(err)
	s.Equal(domain.KindInternal, domain.KindOf(err))
	s.ErrorIs(err, pricing.ErrOverflow)

	s.Equal(int64(5), s.stock(p.ID))
	s.Equal(int64(0), s.ledgerCount())
	s.Equal(1, s.recorder.counts[metrics.ResultFailure])
}

func (s *PurchaseTestSuite) TestConcurrentPurchasesNeverOversell() {
	p := repotest.SeedProduct(s.T(), s.db, "Promo", 1000, 5)

	var (
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := s.svc.Create(s.ctx, s.customer, p.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case domain.KindOf(err) == domain.KindConflict:
				conflicts++
			default:
				return err
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal(5, succeeded)
	s.Equal(5, conflicts)
	s.Equal(int64(0), s.stock(p.ID))
	s.Equal(int64(5), s.ledgerCount())
}

func (s *PurchaseTestSuite) TestListAndGetAreScoped() {
	p := repotest.SeedProduct(s.T(), s.db, "Susu", 1000, 10)
	other := repotest.SeedUser(s.T(), s.db, domain.RoleCustomer)
	otherCaller := domain.Caller{UserID: other.ID, Role: domain.RoleCustomer}

	mine, err := s.svc.Create(s.ctx, s.customer, p.ID, 1)
	s.Require().NoError(err)
	theirs, err := s.svc.Create(s.ctx, otherCaller, p.ID, 2)
	s.Require().NoError(err)

	rows, total, q, err := s.svc.List(s.ctx, s.customer, repository.ListQuery{})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(rows, 1)
	s.Equal(mine.ID, rows[0].ID)
	s.Equal(10, q.Limit)

	_, err = s.svc.Get(s.ctx, s.customer, theirs.ID)
	s.ErrorIs(err, domain.ErrTransactionNotFound)

	rows, total, _, err = s.svc.List(s.ctx, s.admin, repository.ListQuery{OrderBy: "total", SortBy: "asc"})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Equal(mine.ID, rows[0].ID)

	got, err := s.svc.Get(s.ctx, s.admin, theirs.ID)
	s.Require().NoError(err)
	s.Equal(other.ID, got.UserID)

	_, _, _, err = s.svc.List(s.ctx, s.admin, repository.ListQuery{OrderBy: "password"})
	s.ErrorIs(err, domain.ErrInvalidSort)
}

func TestPurchaseTestSuite(t *testing.T) {
	suite.Run(t, new(PurchaseTestSuite))
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewService(nil, nil, pricing.Default(), WithRecorder(nil))
	require.NotNil(t, svc.recorder)
	assert.Equal(t, 10, svc.defaultLimit)
	assert.Equal(t, 100, svc.maxLimit)
}
