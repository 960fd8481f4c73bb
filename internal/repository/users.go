package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/pkg/common"
)

// UserRepository handles account storage
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// TokenRepository handles issued access tokens
type TokenRepository interface {
	Create(ctx context.Context, t *domain.AccessToken) error
	Get(ctx context.Context, id string) (*domain.AccessToken, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, u *domain.User) error {
	if u.ID == 0 {
		u.ID = common.UUIDint64()
	}
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrEmailTaken
	}
	return errors.Wrap(err, "create user")
}

func (r *GormUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(r.db.WithContext(ctx).Where("email = ?", email))
}

func (r *GormUserRepository) first(db *gorm.DB) (*domain.User, error) {
	var u domain.User
	err := db.First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.ErrUserNotFound
	case err != nil:
		return nil, errors.Wrap(err, "query user")
	}
	return &u, nil
}

func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "count users")
	}
	return count > 0, nil
}

type GormTokenRepository struct {
	db *gorm.DB
}

func NewGormTokenRepository(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

func (r *GormTokenRepository) Create(ctx context.Context, t *domain.AccessToken) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(t).Error, "create access token")
}

// Get returns ErrUnauthenticated for unknown (revoked) tokens.
func (r *GormTokenRepository) Get(ctx context.Context, id string) (*domain.AccessToken, error) {
	var t domain.AccessToken
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.ErrUnauthenticated
	case err != nil:
		return nil, errors.Wrap(err, "query access token")
	}
	return &t, nil
}

func (r *GormTokenRepository) Touch(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.AccessToken{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
	return errors.Wrap(err, "touch access token")
}

func (r *GormTokenRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.AccessToken{}).Error
	return errors.Wrap(err, "delete access token")
}

func (r *GormTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&domain.AccessToken{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "delete expired access tokens")
	}
	return res.RowsAffected, nil
}
