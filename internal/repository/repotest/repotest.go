// Package repotest provides throwaway sqlite databases for tests.
package repotest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/pkg/common"
)

// NewDB opens a migrated sqlite database in t's temp dir. A single
// connection is used so concurrent writers queue instead of failing
// with "database is locked".
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", filepath.Join(t.TempDir(), "test.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

// SeedUser inserts a user with the given role. The password hash is a
// placeholder, so the user cannot log in.
func SeedUser(t testing.TB, db *gorm.DB, role domain.Role) *domain.User {
	t.Helper()
	id := common.UUIDint64()
	u := &domain.User{
		ID:       id,
		Name:     fmt.Sprintf("user-%d", id),
		Email:    fmt.Sprintf("user-%d@example.com", id),
		Password: "x",
		Role:     role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func SeedProduct(t testing.TB, db *gorm.DB, name string, price, quantity int64) *domain.Product {
	t.Helper()
	p := &domain.Product{Name: name, Price: price, Quantity: quantity}
	require.NoError(t, db.Create(p).Error)
	return p
}
