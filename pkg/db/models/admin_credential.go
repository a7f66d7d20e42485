package models

import "time"

// AdminCredential stores the admin password hash once it has been changed
// from the environment default.
type AdminCredential struct {
	Username     string    `gorm:"column:username;primaryKey"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (AdminCredential) TableName() string { return "admin_credentials" }
