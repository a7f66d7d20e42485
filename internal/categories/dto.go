package categories

import (
	"time"

	"github.com/angelmondragon/wholesale-backend/internal/products"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
)

// CategoryDTO is a category with the number of products linked to it.
type CategoryDTO struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Image        string    `json:"image"`
	ProductCount int64     `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Detail is a category page: the category plus its in-stock products.
type Detail struct {
	Category CategoryDTO           `json:"category"`
	Products []products.ProductDTO `json:"products"`
}

// Input carries the editable fields of a category.
type Input struct {
	Name  string
	Slug  string
	Image string
}

type categoryRow struct {
	models.Category
	ProductCount int64 `gorm:"column:product_count"`
}

func toDTO(row categoryRow) CategoryDTO {
	dto := CategoryDTO{
		ID:           row.ID,
		Name:         row.Name,
		Slug:         row.Slug,
		ProductCount: row.ProductCount,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.Image != nil {
		dto.Image = *row.Image
	}
	return dto
}
