package domain

import (
	"time"

	"gorm.io/gorm"
)

// Transaction is an append-only ledger entry for one purchase. Price is the
// product's unit price when the purchase was committed.
type Transaction struct {
	ID        int64          `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	UserID    int64          `gorm:"index;not null" json:"user_id,string"`
	ProductID int64          `gorm:"index;not null" json:"product_id"`
	Price     int64          `gorm:"not null;default:0" json:"price"`
	Quantity  int64          `gorm:"not null;default:0" json:"quantity"`
	AdminFee  int64          `gorm:"not null;default:0" json:"admin_fee"`
	Tax       int64          `gorm:"not null;default:0" json:"tax"`
	Total     int64          `gorm:"not null;default:0" json:"total"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User    *User    `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Product *Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}
