package models

import (
	"time"

	"github.com/lib/pq"
)

// Product is a wholesale listing with tiered prices.
type Product struct {
	ID          int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string         `gorm:"column:name;not null"`
	Slug        string         `gorm:"column:slug;not null;uniqueIndex"`
	Description *string        `gorm:"column:description"`
	Images      pq.StringArray `gorm:"column:images;type:text[]"`
	Stock       int            `gorm:"column:stock;not null;default:0"`
	Prices      []ProductPrice `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Categories  []Category     `gorm:"many2many:product_categories;joinForeignKey:ProductID;joinReferences:CategoryID"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

// ProductCategory is the product/category link row.
type ProductCategory struct {
	ProductID  int64 `gorm:"column:product_id;primaryKey"`
	CategoryID int64 `gorm:"column:category_id;primaryKey"`
}

func (ProductCategory) TableName() string { return "product_categories" }
