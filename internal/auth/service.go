// Package auth registers users and issues, verifies and revokes bearer tokens.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/internal/repository"
	"github.com/agunghasbi/be-ekuator/pkg/common"
)

const tokenName = "main"

type RegisterInput struct {
	Name     string      `json:"name" validate:"required,max=255"`
	Email    string      `json:"email" validate:"required,email,max=255"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	Role     domain.Role `json:"role" validate:"required,oneof=1 2"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Service struct {
	users      repository.UserRepository
	tokens     repository.TokenRepository
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
}

type Option func(*Service)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(users repository.UserRepository, tokens repository.TokenRepository, secret string, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		users:      users,
		tokens:     tokens,
		secret:     []byte(secret),
		ttl:        ttl,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if !in.Role.Valid() {
		return nil, domain.Validation("INVALID_ROLE", "The selected role is invalid.")
	}
	email := normalizeEmail(in.Email)
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if exists {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, domain.Internal(err)
	}
	u := &domain.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: string(hash),
		Role:     in.Role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, domain.AsError(err)
	}
	zap.L().Info("user registered", zap.Int64("user_id", u.ID), zap.String("role", u.Role.String()))
	return u, nil
}

// Login checks credentials and issues a new bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", domain.Internal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}

	now := s.now()
	row := &domain.AccessToken{
		ID:        common.UUID(),
		UserID:    u.ID,
		Name:      tokenName,
		ExpiresAt: now.Add(s.ttl),
	}
	signed, err := signToken(s.secret, row.ID, u, now, row.ExpiresAt)
	if err != nil {
		return "", domain.Internal(err)
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return "", domain.Internal(err)
	}
	zap.L().Info("user logged in", zap.Int64("user_id", u.ID))
	return signed, nil
}

// Authenticate resolves a bearer token to the calling user. Every failure
// is reported as ErrUnauthenticated except storage errors.
func (s *Service) Authenticate(ctx context.Context, raw string) (domain.Caller, error) {
	claims, err := ParseToken(s.secret, raw)
	if err != nil {
		return domain.Caller{}, domain.ErrUnauthenticated
	}
	userID, err := claims.UserID()
	if err != nil {
		return domain.Caller{}, domain.ErrUnauthenticated
	}

	row, err := s.tokens.Get(ctx, claims.ID)
	if err != nil {
		return domain.Caller{}, domain.AsError(err)
	}
	now := s.now()
	if row.UserID != userID || !now.Before(row.ExpiresAt) {
		return domain.Caller{}, domain.ErrUnauthenticated
	}

	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.Caller{}, domain.ErrUnauthenticated
	}
	if err != nil {
		return domain.Caller{}, domain.Internal(err)
	}
	if err := s.tokens.Touch(ctx, row.ID, now); err != nil {
		zap.L().Warn("touch access token", zap.String("token_id", row.ID), zap.Error(err))
	}
	return domain.Caller{UserID: u.ID, Role: u.Role, TokenID: row.ID}, nil
}

// Logout revokes the token the caller authenticated with.
func (s *Service) Logout(ctx context.Context, caller domain.Caller) error {
	if caller.TokenID == "" {
		return domain.ErrUnauthenticated
	}
	if err := s.tokens.Delete(ctx, caller.TokenID); err != nil {
		return domain.Internal(err)
	}
	zap.L().Info("user logged out", zap.Int64("user_id", caller.UserID))
	return nil
}

func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now())
}
