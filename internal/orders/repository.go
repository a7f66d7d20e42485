package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/internal/repo"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/pagination"
)

// Repository appends to and reads the order log.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Tx(tx)}
}

// Insert appends row and fills its id and created_at.
func (r *Repository) Insert(ctx context.Context, row *models.OrderLog) error {
	return r.DB(ctx).Create(row).Error
}

// List returns a window of the log, newest first.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.OrderLog, error) {
	var rows []models.OrderLog
	q := r.DB(ctx).Order("created_at DESC").Order("id DESC")
	if err := repo.Window(q, params).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
