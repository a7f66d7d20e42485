package fallback

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/internal/categories"
	"github.com/angelmondragon/wholesale-backend/internal/products"
	"github.com/angelmondragon/wholesale-backend/pkg/pricing"
)

const (
	categoryImage = "/placeholder.svg?height=200&width=200"
	productImage  = "/placeholder.svg?height=600&width=600"
)

var seededAt = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func seedCategories() []categories.CategoryDTO {
	rows := []struct {
		id    int64
		name  string
		slug  string
		count int64
	}{
		{1, "Mobile Phones", "mobiles", 25},
		{2, "Laptops", "laptops", 15},
		{3, "Tablets", "tablets", 12},
		{4, "Accessories", "accessories", 45},
		{5, "Smart Watches", "smartwatches", 8},
		{6, "Audio Devices", "audio", 20},
	}
	out := make([]categories.CategoryDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, categories.CategoryDTO{
			ID:           r.id,
			Name:         r.name,
			Slug:         r.slug,
			Image:        categoryImage,
			ProductCount: r.count,
			CreatedAt:    seededAt,
			UpdatedAt:    seededAt,
		})
	}
	return out
}

func seedProducts(cats []categories.CategoryDTO) []products.ProductDTO {
	byID := make(map[int64]categories.CategoryDTO, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	rows := []struct {
		id          int64
		name        string
		slug        string
		description string
		stock       int
		categoryID  int64
		bounds      [3]int
		prices      [4]int64
	}{
		{1, "iPhone 15 Pro", "iphone-15-pro", "Latest iPhone with A17 Pro chip, titanium design, and advanced camera system", 50, 1, [3]int{5, 15, 30}, [4]int64{89000, 87000, 85000, 83000}},
		{2, "Samsung Galaxy S24 Ultra", "samsung-galaxy-s24-ultra", "Premium Android flagship with S Pen, 200MP camera, and AI features", 35, 1, [3]int{5, 15, 30}, [4]int64{78000, 76000, 75000, 73000}},
		{3, `MacBook Pro 16"`, "macbook-pro-16", "Professional laptop with M3 Pro chip, Liquid Retina XDR display", 20, 2, [3]int{3, 10, 20}, [4]int64{185000, 182000, 180000, 178000}},
		{4, "AirPods Pro 2", "airpods-pro-2", "Premium wireless earbuds with active noise cancellation", 100, 4, [3]int{10, 25, 50}, [4]int64{19000, 18500, 18000, 17500}},
	}

	out := make([]products.ProductDTO, 0, len(rows))
	for _, r := range rows {
		cat := byID[r.categoryID]
		p := products.ProductDTO{
			ID:            r.id,
			Name:          r.name,
			Slug:          r.slug,
			Description:   r.description,
			Images:        []string{productImage},
			Stock:         r.stock,
			Prices:        tiers(r.bounds, r.prices),
			CategoryIDs:   []int64{cat.ID},
			CategoryNames: []string{cat.Name},
			CategorySlugs: []string{cat.Slug},
			CreatedAt:     seededAt,
			UpdatedAt:     seededAt,
		}
		p.FinalizeLabels()
		out = append(out, p)
	}
	return out
}

// tiers expands three upper bounds into four contiguous brackets starting at
// one, the last unbounded.
func tiers(bounds [3]int, prices [4]int64) []pricing.Bracket {
	out := make([]pricing.Bracket, 0, len(prices))
	lower := 1
	for i, price := range prices {
		b := pricing.Bracket{MinQuantity: lower, UnitPrice: decimal.NewFromInt(price)}
		if i < len(bounds) {
			upper := bounds[i]
			b.MaxQuantity = &upper
			lower = upper + 1
		}
		out = append(out, b)
	}
	return out
}
