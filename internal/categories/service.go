package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/internal/products"
	"github.com/angelmondragon/wholesale-backend/pkg/db"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

// Reader is the storefront side of categories.
type Reader interface {
	List(ctx context.Context) ([]CategoryDTO, error)
	GetBySlug(ctx context.Context, slug string) (*Detail, error)
	GetByID(ctx context.Context, id int64) (*CategoryDTO, error)
}

// Service adds admin category management to Reader.
type Service interface {
	Reader
	Create(ctx context.Context, input Input) (*CategoryDTO, error)
	Update(ctx context.Context, id int64, input Input) (*CategoryDTO, error)
	Delete(ctx context.Context, id int64) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	products products.Reader
	tx       txRunner
}

// NewService constructs the database-backed category service.
func NewService(repo *Repository, productReader products.Reader, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if productReader == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: productReader, tx: tx}, nil
}

func (s *service) List(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*Detail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	row, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, mapLookupError(err)
	}
	items, err := s.products.ListInStockByCategory(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return &Detail{Category: toDTO(*row), Products: items}, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*CategoryDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	dto := toDTO(*row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input Input) (*CategoryDTO, error) {
	category, err := normalize(input)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensureSlugFree(ctx, repo, category.Slug, 0); err != nil {
			return err
		}
		if err := repo.Create(ctx, category); err != nil {
			return mapWriteError(err, "db: insert category")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, category.ID)
}

func (s *service) Update(ctx context.Context, id int64, input Input) (*CategoryDTO, error) {
	category, err := normalize(input)
	if err != nil {
		return nil, err
	}
	category.ID = id
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensureSlugFree(ctx, repo, category.Slug, id); err != nil {
			return err
		}
		found, err := repo.Update(ctx, category)
		if err != nil {
			return mapWriteError(err, "db: update category")
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := s.repo.WithTx(tx).Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete category")
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil
	})
}

func normalize(input Input) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	slug := strings.TrimSpace(input.Slug)
	if name == "" || slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and slug are required")
	}
	category := &models.Category{Name: name, Slug: slug}
	if image := strings.TrimSpace(input.Image); image != "" {
		category.Image = &image
	}
	return category, nil
}

func ensureSlugFree(ctx context.Context, repo *Repository, slug string, excludeID int64) error {
	taken, err := repo.SlugTaken(ctx, slug, excludeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check category slug")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists").
			WithDetails(map[string]any{"slug": slug})
	}
	return nil
}

func mapWriteError(err error, message string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category slug already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category")
}
