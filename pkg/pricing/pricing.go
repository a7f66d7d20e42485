// Package pricing resolves unit prices from a product's quantity brackets.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

// Bracket is an inclusive quantity range with a unit price. A nil
// MaxQuantity leaves the range open-ended.
type Bracket struct {
	MinQuantity int             `json:"min_quantity"`
	MaxQuantity *int            `json:"max_quantity"`
	UnitPrice   decimal.Decimal `json:"price"`
}

// Contains reports whether quantity falls inside the bracket.
func (b Bracket) Contains(quantity int) bool {
	if quantity < b.MinQuantity {
		return false
	}
	return b.MaxQuantity == nil || quantity <= *b.MaxQuantity
}

// Match returns the first bracket, in list order, containing quantity.
func Match(brackets []Bracket, quantity int) (Bracket, bool) {
	for _, b := range brackets {
		if b.Contains(quantity) {
			return b, true
		}
	}
	return Bracket{}, false
}

// Resolve returns the unit price for quantity. When no bracket contains the
// quantity the first bracket's price applies; an empty list resolves to zero.
func Resolve(brackets []Bracket, quantity int) decimal.Decimal {
	if b, ok := Match(brackets, quantity); ok {
		return b.UnitPrice
	}
	if len(brackets) == 0 {
		return decimal.Zero
	}
	return brackets[0].UnitPrice
}

// MinPrice returns the lowest unit price across brackets, or zero when empty.
func MinPrice(brackets []Bracket) decimal.Decimal {
	if len(brackets) == 0 {
		return decimal.Zero
	}
	lowest := brackets[0].UnitPrice
	for _, b := range brackets[1:] {
		if b.UnitPrice.LessThan(lowest) {
			lowest = b.UnitPrice
		}
	}
	return lowest
}

// Validate checks a bracket list before it is saved: non-empty, sorted by
// MinQuantity, non-overlapping, non-negative prices, and at most one
// open-ended bracket which must come last. Gaps are allowed.
func Validate(brackets []Bracket) error {
	if len(brackets) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one price bracket is required")
	}

	for i, b := range brackets {
		if b.MinQuantity < 1 {
			return bracketError(i, "min_quantity must be at least 1")
		}
		if b.MaxQuantity != nil && *b.MaxQuantity < b.MinQuantity {
			return bracketError(i, "max_quantity must be greater than or equal to min_quantity")
		}
		if b.UnitPrice.IsNegative() {
			return bracketError(i, "price must not be negative")
		}
		if b.MaxQuantity == nil && i != len(brackets)-1 {
			return bracketError(i, "only the last bracket may be open-ended")
		}
		if i == 0 {
			continue
		}
		prev := brackets[i-1]
		if b.MinQuantity <= prev.MinQuantity {
			return bracketError(i, "brackets must be sorted by min_quantity")
		}
		if prev.MaxQuantity != nil && b.MinQuantity <= *prev.MaxQuantity {
			return bracketError(i, "brackets must not overlap")
		}
	}
	return nil
}

func bracketError(index int, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("price bracket %d: %s", index+1, msg)).
		WithDetails(map[string]any{"bracket": index})
}
