package checkout

import (
	"strings"

	"github.com/angelmondragon/wholesale-backend/internal/cart"
	"github.com/angelmondragon/wholesale-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/types"
)

// Customer holds the contact fields collected at checkout. Name and Phone
// are required.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func (c Customer) normalized() Customer {
	return Customer{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Email:   strings.TrimSpace(c.Email),
		Address: strings.TrimSpace(c.Address),
		Notes:   strings.TrimSpace(c.Notes),
	}
}

// BuildOrder transcribes the cart into an order draft.
func BuildOrder(c *cart.Cart, customer Customer) (orders.Draft, error) {
	customer = customer.normalized()
	details := map[string]string{}
	if customer.Name == "" {
		details["name"] = "name is required"
	}
	if customer.Phone == "" {
		details["phone"] = "phone is required"
	}
	if len(details) > 0 {
		return orders.Draft{}, pkgerrors.New(pkgerrors.CodeValidation, "please fill in your name and phone number").WithDetails(details)
	}
	if c == nil || c.IsEmpty() {
		return orders.Draft{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines := c.Lines()
	draft := orders.Draft{
		Products:    make([]types.OrderProduct, 0, len(lines)),
		Quantities:  make([]int, 0, len(lines)),
		TotalPrice:  c.Total(),
		UserContact: customer.Phone,
		UserName:    customer.Name,
		UserEmail:   customer.Email,
		UserAddress: customer.Address,
		Notes:       customer.Notes,
	}
	for _, line := range lines {
		draft.Products = append(draft.Products, types.OrderProduct{ID: line.ProductID, Name: line.Name, Price: line.UnitPrice})
		draft.Quantities = append(draft.Quantities, line.Quantity)
	}
	return draft, nil
}
