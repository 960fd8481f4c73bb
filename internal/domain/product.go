package domain

import (
	"time"

	"gorm.io/gorm"
)

// Product is a catalog item. Price is in minor currency units.
type Product struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string         `gorm:"size:120;index;not null" json:"name"`
	Price     int64          `gorm:"not null;default:0" json:"price"`
	Quantity  int64          `gorm:"not null;default:0" json:"quantity"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
