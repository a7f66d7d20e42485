package products

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
)

// Repository persists products, their category links and price brackets.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Prices", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_quantity ASC")
		}).
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		})
}

// FindBySlug loads a product with prices and categories.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.withAssociations(ctx).Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByID loads a product with prices and categories.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.withAssociations(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns every product, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	if err := r.withAssociations(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListInStockByCategory returns the category's products with stock, by name.
func (r *Repository) ListInStockByCategory(ctx context.Context, categoryID int64) ([]models.Product, error) {
	var rows []models.Product
	err := r.withAssociations(ctx).
		Where("stock > 0").
		Where("id IN (?)", r.db.Model(&models.ProductCategory{}).Select("product_id").Where("category_id = ?", categoryID)).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SlugTaken reports whether another product already uses slug.
func (r *Repository) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountCategories returns how many of ids exist.
func (r *Repository) CountCategories(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts the product row only.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Prices", "Categories").Create(product).Error
}

// Update writes the editable columns of product.
func (r *Repository) Update(ctx context.Context, product *models.Product) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":        product.Name,
			"slug":        product.Slug,
			"description": product.Description,
			"images":      product.Images,
			"stock":       product.Stock,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the product with its links and prices.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", id).Delete(&models.ProductCategory{}).Error; err != nil {
		return false, err
	}
	if err := db.Where("product_id = ?", id).Delete(&models.ProductPrice{}).Error; err != nil {
		return false, err
	}
	res := db.Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReplaceCategories swaps the product's category links for categoryIDs.
func (r *Repository) ReplaceCategories(ctx context.Context, productID int64, categoryIDs []int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&models.ProductCategory{}).Error; err != nil {
		return err
	}
	if len(categoryIDs) == 0 {
		return nil
	}
	links := make([]models.ProductCategory, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		links = append(links, models.ProductCategory{ProductID: productID, CategoryID: id})
	}
	return db.Create(&links).Error
}

// ReplacePrices swaps the product's price brackets for rows.
func (r *Repository) ReplacePrices(ctx context.Context, productID int64, rows []models.ProductPrice) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&models.ProductPrice{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return db.Create(&rows).Error
}
