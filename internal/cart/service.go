package cart

import (
	"context"
	"fmt"

	"github.com/angelmondragon/wholesale-backend/internal/products"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

// Service owns the cart lifecycle of a cart session.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	AddItem(ctx context.Context, sessionID string, productID int64, quantity int) (*Cart, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, sessionID string, productID int64) (*Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	store    Store
	products products.Reader
	logg     *logger.Logger
}

// NewService wires a cart service over store, pricing lines from catalog.
func NewService(store Store, catalog products.Reader, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{store: store, products: catalog, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	return s.load(ctx, sessionID)
}

// AddItem prices the line at the tier matching quantity and merges it into
// the cart, replacing any existing line for the product.
func (s *service) AddItem(ctx context.Context, sessionID string, productID int64, quantity int) (*Cart, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		c.RemoveLine(productID)
		return c, s.save(ctx, sessionID, c)
	}

	product, err := s.inStock(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}

	c.AddLine(product.ID, product.Name, product.UnitPrice(quantity), quantity, product.PrimaryImage())
	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	ctx = s.logg.WithFields(s.logg.WithCartSession(ctx, sessionID), map[string]any{"product_id": productID, "quantity": quantity})
	s.logg.Debug(ctx, "cart line set")
	return c, nil
}

// UpdateQuantity keeps the line's unit price but holds the new quantity to
// the product's current stock.
func (s *service) UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*Cart, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if quantity > 0 && c.indexOf(productID) >= 0 {
		if _, err := s.inStock(ctx, productID, quantity); err != nil {
			return nil, err
		}
	}
	c.UpdateQuantity(productID, quantity)
	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, productID int64) (*Cart, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.RemoveLine(productID)
	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart store unavailable")
	}
	return nil
}

func (s *service) inStock(ctx context.Context, productID int64, quantity int) (*products.ProductDTO, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "requested quantity exceeds available stock").
			WithDetails(map[string]any{"product_id": productID, "available": product.Stock, "requested": quantity})
	}
	return product, nil
}

func (s *service) load(ctx context.Context, sessionID string) (*Cart, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart store unavailable")
	}
	return c, nil
}

func (s *service) save(ctx context.Context, sessionID string, c *Cart) error {
	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart store unavailable")
	}
	return nil
}
