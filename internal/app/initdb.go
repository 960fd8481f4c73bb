package app

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/pkg/common"
)

// checkAdmin makes sure the configured administrator account exists and
// still carries the admin role.
func (a *Application) checkAdmin() {
	cfg := a.appConfig.Admin
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" {
		return
	}

	var user domain.User
	err := a.gormDB.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			zap.L().Error("failed to hash default admin password", zap.Error(err))
			return
		}
		if err := a.gormDB.Create(&domain.User{
			ID:       common.UUIDint64(),
			Name:     cfg.Name,
			Email:    email,
			Password: string(hash),
			Role:     domain.RoleAdmin,
		}).Error; err != nil {
			zap.L().Error("failed to create default admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default admin account", zap.String("email", email))
		}
		return
	case err != nil:
		zap.L().Error("failed to query admin", zap.Error(err))
		return
	}

	if user.Role == domain.RoleAdmin {
		return
	}
	if err := a.gormDB.Model(&domain.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"role":       domain.RoleAdmin,
		"updated_at": time.Now(),
	}).Error; err != nil {
		zap.L().Error("failed to repair admin account", zap.Error(err))
		return
	}
	zap.L().Warn("repaired default admin account role", zap.String("email", email))
}

var sampleProducts = []domain.Product{
	{Name: "Kopi Arabika 250g", Price: 85000, Quantity: 25},
	{Name: "Teh Melati 100g", Price: 18000, Quantity: 40},
	{Name: "Gula Aren 500g", Price: 32000, Quantity: 15},
}

// checkProducts seeds a few products into an empty catalog in debug mode.
func (a *Application) checkProducts() {
	if !a.appConfig.System.Debug {
		return
	}
	var count int64
	if err := a.gormDB.Unscoped().Model(&domain.Product{}).Count(&count).Error; err != nil {
		zap.L().Error("failed to count products", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}
	rows := make([]domain.Product, len(sampleProducts))
	copy(rows, sampleProducts)
	if err := a.gormDB.Create(&rows).Error; err != nil {
		zap.L().Error("failed to seed products", zap.Error(err))
		return
	}
	zap.L().Info("seeded sample products", zap.Int("count", len(rows)))
}
