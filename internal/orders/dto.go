package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/types"
)

// Draft is an order ready to be written to the order log. Products and
// Quantities are parallel arrays in cart line order.
type Draft struct {
	Products    []types.OrderProduct `json:"products"`
	Quantities  []int                `json:"quantities"`
	TotalPrice  decimal.Decimal      `json:"total_price"`
	UserContact string               `json:"user_contact"`
	UserName    string               `json:"user_name"`
	UserEmail   string               `json:"user_email,omitempty"`
	UserAddress string               `json:"user_address,omitempty"`
	Notes       string               `json:"notes,omitempty"`
}

// Record is a logged order.
type Record struct {
	ID int64 `json:"id"`
	Draft
	CreatedAt time.Time `json:"created_at"`
}

// ItemCount is the sum of quantities.
func (d Draft) ItemCount() int {
	n := 0
	for _, q := range d.Quantities {
		n += q
	}
	return n
}

// Validate checks the contact fields and that the parallel arrays describe
// the stated total.
func (d Draft) Validate() error {
	details := map[string]string{}
	if strings.TrimSpace(d.UserName) == "" {
		details["user_name"] = "name is required"
	}
	if strings.TrimSpace(d.UserContact) == "" {
		details["user_contact"] = "phone is required"
	}
	if len(d.Products) == 0 {
		details["products"] = "order has no products"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order").WithDetails(details)
	}
	if len(d.Products) != len(d.Quantities) {
		return pkgerrors.New(pkgerrors.CodeValidation, "products and quantities must have the same length")
	}
	sum := decimal.Zero
	for i, p := range d.Products {
		if d.Quantities[i] <= 0 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "quantity for product %d must be positive", p.ID)
		}
		if p.Price.IsNegative() {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "price for product %d must not be negative", p.ID)
		}
		sum = sum.Add(p.Price.Mul(decimal.NewFromInt(int64(d.Quantities[i]))))
	}
	if !sum.Equal(d.TotalPrice) {
		return pkgerrors.New(pkgerrors.CodeValidation, "total_price does not match products").
			WithDetails(map[string]string{"expected": sum.String()})
	}
	return nil
}

func (d Draft) normalized() Draft {
	d.UserContact = strings.TrimSpace(d.UserContact)
	d.UserName = strings.TrimSpace(d.UserName)
	d.UserEmail = strings.TrimSpace(d.UserEmail)
	d.UserAddress = strings.TrimSpace(d.UserAddress)
	d.Notes = strings.TrimSpace(d.Notes)
	return d
}

func toModel(d Draft) models.OrderLog {
	return models.OrderLog{
		Products:    types.OrderProducts(d.Products),
		Quantities:  types.Quantities(d.Quantities),
		TotalPrice:  d.TotalPrice,
		UserContact: optional(d.UserContact),
		UserName:    optional(d.UserName),
		UserEmail:   optional(d.UserEmail),
		UserAddress: optional(d.UserAddress),
		Notes:       optional(d.Notes),
	}
}

func fromModel(m models.OrderLog) Record {
	return Record{
		ID: m.ID,
		Draft: Draft{
			Products:    append([]types.OrderProduct{}, m.Products...),
			Quantities:  append([]int{}, m.Quantities...),
			TotalPrice:  m.TotalPrice,
			UserContact: deref(m.UserContact),
			UserName:    deref(m.UserName),
			UserEmail:   deref(m.UserEmail),
			UserAddress: deref(m.UserAddress),
			Notes:       deref(m.Notes),
		},
		CreatedAt: m.CreatedAt,
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
