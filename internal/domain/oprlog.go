package domain

import "time"

// OprLog records a catalog change made through the API.
type OprLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	UserID    int64     `gorm:"index" json:"user_id,string"`
	OprIp     string    `gorm:"size:64" json:"opr_ip"`
	OptAction string    `gorm:"size:64" json:"opt_action"`
	OptDesc   string    `gorm:"size:512" json:"opt_desc"`
	OptTime   time.Time `gorm:"index" json:"opt_time"`
}

// TableName Specify table name
func (OprLog) TableName() string {
	return "opr_logs"
}
