package categories

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
)

// Repository persists categories.
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

func (r *Repository) withCounts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("categories AS c").
		Select("c.*, COUNT(pc.product_id) AS product_count").
		Joins("LEFT JOIN product_categories pc ON pc.category_id = c.id").
		Group("c.id")
}

// List returns every category ordered by name with its product count.
func (r *Repository) List(ctx context.Context) ([]categoryRow, error) {
	var rows []categoryRow
	if err := r.withCounts(ctx).Order("c.name ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindBySlug loads one category with its product count.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*categoryRow, error) {
	return r.findOne(r.withCounts(ctx).Where("c.slug = ?", slug))
}

// FindByID loads one category with its product count.
func (r *Repository) FindByID(ctx context.Context, id int64) (*categoryRow, error) {
	return r.findOne(r.withCounts(ctx).Where("c.id = ?", id))
}

func (r *Repository) findOne(q *gorm.DB) (*categoryRow, error) {
	var rows []categoryRow
	if err := q.Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// SlugTaken reports whether another category already uses slug.
func (r *Repository) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a category.
func (r *Repository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// Update writes the editable columns of category.
func (r *Repository) Update(ctx context.Context, category *models.Category) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]any{
			"name":  category.Name,
			"slug":  category.Slug,
			"image": category.Image,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete detaches the category from its products and removes it.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	db := r.db.WithContext(ctx)
	if err := db.Where("category_id = ?", id).Delete(&models.ProductCategory{}).Error; err != nil {
		return false, err
	}
	res := db.Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
