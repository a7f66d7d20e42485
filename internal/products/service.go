package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/db"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/pricing"
)

// Reader is the read side of the catalog, served either by the database or
// by the fallback dataset.
type Reader interface {
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	GetByID(ctx context.Context, id int64) (*ProductDTO, error)
	List(ctx context.Context) ([]ProductDTO, error)
	ListInStockByCategory(ctx context.Context, categoryID int64) ([]ProductDTO, error)
}

// Service exposes catalog reads and admin product management.
type Service interface {
	Reader
	Create(ctx context.Context, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, id int64) error
	ReplacePrices(ctx context.Context, id int64, brackets []pricing.Bracket) (*ProductDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
	now  func() time.Time
}

// NewService constructs the database-backed product service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, mapLookupError(err, "product not found")
	}
	dto := toDTO(*product)
	return &dto, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "product not found")
	}
	dto := toDTO(*product)
	return &dto, nil
}

func (s *service) List(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return toDTOs(rows), nil
}

func (s *service) ListInStockByCategory(ctx context.Context, categoryID int64) ([]ProductDTO, error) {
	rows, err := s.repo.ListInStockByCategory(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list category products")
	}
	return toDTOs(rows), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*ProductDTO, error) {
	if err := validateFields(input.Name, input.Slug, input.Stock); err != nil {
		return nil, err
	}
	if len(input.Prices) > 0 {
		if err := pricing.Validate(input.Prices); err != nil {
			return nil, err
		}
	}
	categoryIDs := dedupeIDs(input.CategoryIDs)

	var createdID int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensureCategoriesExist(ctx, repo, categoryIDs); err != nil {
			return err
		}

		slug := strings.TrimSpace(input.Slug)
		taken, err := repo.SlugTaken(ctx, slug, 0)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check product slug")
		}
		if taken {
			slug = fmt.Sprintf("%s-%06d", slug, s.now().UnixMilli()%1_000_000)
		}

		product := &models.Product{
			Name:        strings.TrimSpace(input.Name),
			Slug:        slug,
			Description: optionalText(input.Description),
			Images:      pq.StringArray(cleanImages(input.Images)),
			Stock:       input.Stock,
		}
		if err := repo.Create(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product slug already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		if err := repo.ReplaceCategories(ctx, product.ID, categoryIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: link product categories")
		}
		if len(input.Prices) > 0 {
			if err := repo.ReplacePrices(ctx, product.ID, bracketsToModels(product.ID, input.Prices)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product prices")
			}
		}
		createdID = product.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, createdID)
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (*ProductDTO, error) {
	if err := validateFields(input.Name, input.Slug, input.Stock); err != nil {
		return nil, err
	}
	if len(input.Prices) > 0 {
		if err := pricing.Validate(input.Prices); err != nil {
			return nil, err
		}
	}
	categoryIDs := dedupeIDs(input.CategoryIDs)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensureCategoriesExist(ctx, repo, categoryIDs); err != nil {
			return err
		}

		slug := strings.TrimSpace(input.Slug)
		taken, err := repo.SlugTaken(ctx, slug, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check product slug")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
		}

		found, err := repo.Update(ctx, &models.Product{
			ID:          id,
			Name:        strings.TrimSpace(input.Name),
			Slug:        slug,
			Description: optionalText(input.Description),
			Images:      pq.StringArray(cleanImages(input.Images)),
			Stock:       input.Stock,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if err := repo.ReplaceCategories(ctx, id, categoryIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: link product categories")
		}
		if len(input.Prices) > 0 {
			if err := repo.ReplacePrices(ctx, id, bracketsToModels(id, input.Prices)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace product prices")
			}
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
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil
	})
}

func (s *service) ReplacePrices(ctx context.Context, id int64, brackets []pricing.Bracket) (*ProductDTO, error) {
	if err := pricing.Validate(brackets); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return mapLookupError(err, "product not found")
		}
		if err := repo.ReplacePrices(ctx, id, bracketsToModels(id, brackets)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace product prices")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func validateFields(name, slug string, stock int) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(slug) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name and slug are required")
	}
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}
	return nil
}

func ensureCategoriesExist(ctx context.Context, repo *Repository, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	count, err := repo.CountCategories(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count categories")
	}
	if count != int64(len(ids)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "one or more categories do not exist").
			WithDetails(map[string]any{"category_ids": ids})
	}
	return nil
}

func mapLookupError(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
}

func toDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			out = append(out, img)
		}
	}
	return out
}

func optionalText(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
