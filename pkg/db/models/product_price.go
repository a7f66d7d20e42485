package models

import "github.com/shopspring/decimal"

// ProductPrice is one quantity bracket of a product's tiered pricing.
// A nil MaxQuantity means the bracket is unbounded.
type ProductPrice struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID   int64           `gorm:"column:product_id;not null;index"`
	MinQuantity int             `gorm:"column:min_quantity;not null"`
	MaxQuantity *int            `gorm:"column:max_quantity"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
}

func (ProductPrice) TableName() string { return "product_prices" }
