package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/pkg/types"
)

// OrderLog is an append-only record of a checkout handed off to WhatsApp.
type OrderLog struct {
	ID          int64               `gorm:"column:id;primaryKey;autoIncrement"`
	Products    types.OrderProducts `gorm:"column:products;type:jsonb;not null"`
	Quantities  types.Quantities    `gorm:"column:quantities;type:jsonb;not null"`
	TotalPrice  decimal.Decimal     `gorm:"column:total_price;type:numeric(12,2);not null"`
	UserContact *string             `gorm:"column:user_contact"`
	UserName    *string             `gorm:"column:user_name"`
	UserEmail   *string             `gorm:"column:user_email"`
	UserAddress *string             `gorm:"column:user_address"`
	Notes       *string             `gorm:"column:notes"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (OrderLog) TableName() string { return "orders_log" }
