package auth

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/wholesale-backend/internal/repo"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
)

// CredentialRepository stores the admin password hash that overrides the
// environment password once changed.
type CredentialRepository struct {
	repo.Base
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{Base: repo.NewBase(db)}
}

// Find returns the stored credential, or nil when none was saved.
func (r *CredentialRepository) Find(ctx context.Context, username string) (*models.AdminCredential, error) {
	var cred models.AdminCredential
	found, err := repo.IgnoreNotFound(r.DB(ctx).Where("username = ?", username).First(&cred).Error)
	if !found {
		return nil, err
	}
	return &cred, nil
}

// Save inserts or replaces the hash for username.
func (r *CredentialRepository) Save(ctx context.Context, username, hash string) error {
	cred := models.AdminCredential{Username: username, PasswordHash: hash}
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{"password_hash", "updated_at"}),
		}).
		Create(&cred).Error
}
