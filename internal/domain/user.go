package domain

import "time"

type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      Role      `gorm:"not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// AccessToken backs an issued bearer token; deleting the row revokes it.
type AccessToken struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	UserID     int64      `gorm:"index;not null" json:"user_id,string"`
	Name       string     `gorm:"size:64" json:"name"`
	ExpiresAt  time.Time  `gorm:"index" json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (AccessToken) TableName() string {
	return "access_tokens"
}
