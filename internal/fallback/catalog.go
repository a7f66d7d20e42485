// Package fallback serves a fixed catalog when no database is configured.
// Reads come from the seeded dataset; admin writes fail with a dependency
// error.
package fallback

import (
	"context"
	"sort"
	"strings"

	"github.com/angelmondragon/wholesale-backend/internal/categories"
	"github.com/angelmondragon/wholesale-backend/internal/products"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/pricing"
)

const writeUnavailable = "database connection required for admin operations"

func errWriteUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeDependency, writeUnavailable)
}

// Products is the fallback products.Service.
type Products struct {
	items []products.ProductDTO
}

// Categories is the fallback categories.Service.
type Categories struct {
	items    []categories.CategoryDTO
	products *Products
}

// New returns the fallback product and category services over one dataset.
func New() (*Products, *Categories) {
	cats := seedCategories()
	prods := &Products{items: seedProducts(cats)}
	return prods, &Categories{items: cats, products: prods}
}

var (
	_ products.Service   = (*Products)(nil)
	_ categories.Service = (*Categories)(nil)
)

func (p *Products) GetBySlug(_ context.Context, slug string) (*products.ProductDTO, error) {
	slug = strings.TrimSpace(slug)
	for _, item := range p.items {
		if item.Slug == slug {
			return cloneProduct(item), nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (p *Products) GetByID(_ context.Context, id int64) (*products.ProductDTO, error) {
	for _, item := range p.items {
		if item.ID == id {
			return cloneProduct(item), nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

// List returns the dataset newest first; with identical timestamps that is
// descending id.
func (p *Products) List(_ context.Context) ([]products.ProductDTO, error) {
	out := make([]products.ProductDTO, 0, len(p.items))
	for i := len(p.items) - 1; i >= 0; i-- {
		out = append(out, *cloneProduct(p.items[i]))
	}
	return out, nil
}

func (p *Products) ListInStockByCategory(_ context.Context, categoryID int64) ([]products.ProductDTO, error) {
	out := []products.ProductDTO{}
	for _, item := range p.items {
		if item.Stock <= 0 || !containsID(item.CategoryIDs, categoryID) {
			continue
		}
		out = append(out, *cloneProduct(item))
	}
	sort.SliceStable(out, func(i, j int) bool { return byName(out[i].Name, out[j].Name) })
	return out, nil
}

func (p *Products) Create(context.Context, products.CreateInput) (*products.ProductDTO, error) {
	return nil, errWriteUnavailable()
}

func (p *Products) Update(context.Context, int64, products.UpdateInput) (*products.ProductDTO, error) {
	return nil, errWriteUnavailable()
}

func (p *Products) Delete(context.Context, int64) error {
	return errWriteUnavailable()
}

func (p *Products) ReplacePrices(context.Context, int64, []pricing.Bracket) (*products.ProductDTO, error) {
	return nil, errWriteUnavailable()
}

func (c *Categories) List(_ context.Context) ([]categories.CategoryDTO, error) {
	out := append([]categories.CategoryDTO(nil), c.items...)
	sort.SliceStable(out, func(i, j int) bool { return byName(out[i].Name, out[j].Name) })
	return out, nil
}

func (c *Categories) GetBySlug(ctx context.Context, slug string) (*categories.Detail, error) {
	slug = strings.TrimSpace(slug)
	for _, item := range c.items {
		if item.Slug != slug {
			continue
		}
		items, err := c.products.ListInStockByCategory(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		return &categories.Detail{Category: item, Products: items}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
}

func (c *Categories) GetByID(_ context.Context, id int64) (*categories.CategoryDTO, error) {
	for _, item := range c.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
}

func (c *Categories) Create(context.Context, categories.Input) (*categories.CategoryDTO, error) {
	return nil, errWriteUnavailable()
}

func (c *Categories) Update(context.Context, int64, categories.Input) (*categories.CategoryDTO, error) {
	return nil, errWriteUnavailable()
}

func (c *Categories) Delete(context.Context, int64) error {
	return errWriteUnavailable()
}

func cloneProduct(p products.ProductDTO) *products.ProductDTO {
	out := p
	out.Images = append([]string(nil), p.Images...)
	out.Prices = append([]pricing.Bracket(nil), p.Prices...)
	out.CategoryIDs = append([]int64(nil), p.CategoryIDs...)
	out.CategoryNames = append([]string(nil), p.CategoryNames...)
	out.CategorySlugs = append([]string(nil), p.CategorySlugs...)
	return &out
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// byName orders names the way the catalog database collates them: case is
// ignored so "iPhone" sorts among the I's.
func byName(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
