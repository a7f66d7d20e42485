package products

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/pricing"
)

const (
	uncategorizedName = "Uncategorized"
	uncategorizedSlug = "uncategorized"
)

// ProductDTO is the catalog view of a product with its price brackets and
// category labels.
type ProductDTO struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	Description   string            `json:"description"`
	Images        []string          `json:"images"`
	Stock         int               `json:"stock"`
	Prices        []pricing.Bracket `json:"prices"`
	MinPrice      decimal.Decimal   `json:"min_price"`
	CategoryIDs   []int64           `json:"category_ids"`
	CategoryNames []string          `json:"category_names"`
	CategorySlugs []string          `json:"category_slugs"`
	CategoryName  string            `json:"category_name"`
	CategorySlug  string            `json:"category_slug"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// PrimaryImage returns the first image, or "" when the product has none.
func (p ProductDTO) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// UnitPrice resolves the tier price for quantity.
func (p ProductDTO) UnitPrice(quantity int) decimal.Decimal {
	return pricing.Resolve(p.Prices, quantity)
}

// FinalizeLabels fills the derived fields: min_price plus the primary
// category label, which falls back to "Uncategorized".
func (p *ProductDTO) FinalizeLabels() {
	p.MinPrice = pricing.MinPrice(p.Prices)
	p.CategoryName = uncategorizedName
	p.CategorySlug = uncategorizedSlug
	if len(p.CategoryNames) > 0 {
		p.CategoryName = p.CategoryNames[0]
	}
	if len(p.CategorySlugs) > 0 {
		p.CategorySlug = p.CategorySlugs[0]
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Prices == nil {
		p.Prices = []pricing.Bracket{}
	}
}

// CreateInput is the admin payload for a new product.
type CreateInput struct {
	Name        string
	Slug        string
	Description string
	Images      []string
	Stock       int
	CategoryIDs []int64
	Prices      []pricing.Bracket
}

// UpdateInput replaces the editable fields of a product. Category links are
// always replaced; prices only when non-empty.
type UpdateInput struct {
	Name        string
	Slug        string
	Description string
	Images      []string
	Stock       int
	CategoryIDs []int64
	Prices      []pricing.Bracket
}

func toDTO(m models.Product) ProductDTO {
	dto := ProductDTO{
		ID:            m.ID,
		Name:          m.Name,
		Slug:          m.Slug,
		Images:        append([]string(nil), m.Images...),
		Stock:         m.Stock,
		Prices:        bracketsFromModels(m.Prices),
		CategoryIDs:   make([]int64, 0, len(m.Categories)),
		CategoryNames: make([]string, 0, len(m.Categories)),
		CategorySlugs: make([]string, 0, len(m.Categories)),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.Description != nil {
		dto.Description = *m.Description
	}
	for _, c := range m.Categories {
		dto.CategoryIDs = append(dto.CategoryIDs, c.ID)
		dto.CategoryNames = append(dto.CategoryNames, c.Name)
		dto.CategorySlugs = append(dto.CategorySlugs, c.Slug)
	}
	dto.FinalizeLabels()
	return dto
}

func bracketsFromModels(rows []models.ProductPrice) []pricing.Bracket {
	out := make([]pricing.Bracket, 0, len(rows))
	for _, row := range rows {
		b := pricing.Bracket{MinQuantity: row.MinQuantity, UnitPrice: row.Price}
		if row.MaxQuantity != nil {
			max := *row.MaxQuantity
			b.MaxQuantity = &max
		}
		out = append(out, b)
	}
	return out
}

func bracketsToModels(productID int64, brackets []pricing.Bracket) []models.ProductPrice {
	out := make([]models.ProductPrice, 0, len(brackets))
	for _, b := range brackets {
		row := models.ProductPrice{
			ProductID:   productID,
			MinQuantity: b.MinQuantity,
			Price:       b.UnitPrice,
		}
		if b.MaxQuantity != nil {
			max := *b.MaxQuantity
			row.MaxQuantity = &max
		}
		out = append(out, row)
	}
	return out
}
