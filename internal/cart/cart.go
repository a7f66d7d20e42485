package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Line is one product in a cart. UnitPrice is the tier price resolved when
// the line was added.
type Line struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

// Subtotal is UnitPrice × Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds at most one line per product, in insertion order. Total always
// equals the sum of line subtotals.
type Cart struct {
	lines []Line
	total decimal.Decimal
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{total: decimal.Zero}
}

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Total() decimal.Decimal {
	return c.total
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// ItemCount is the sum of line quantities.
func (c *Cart) ItemCount() int {
	count := 0
	for _, l := range c.lines {
		count += l.Quantity
	}
	return count
}

// AddLine appends a line, or replaces quantity and unit price of the existing
// line for productID in place. A non-positive quantity removes the line.
func (c *Cart) AddLine(productID int64, name string, unitPrice decimal.Decimal, quantity int, image string) {
	if quantity <= 0 {
		c.RemoveLine(productID)
		return
	}
	if i := c.indexOf(productID); i >= 0 {
		c.lines[i].Quantity = quantity
		c.lines[i].UnitPrice = unitPrice
		c.recompute()
		return
	}
	c.lines = append(c.lines, Line{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Image:     image,
	})
	c.recompute()
}

// UpdateQuantity sets the quantity of an existing line without re-resolving
// its price. A non-positive quantity removes the line; unknown products are
// ignored.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		c.RemoveLine(productID)
		return
	}
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.lines[i].Quantity = quantity
	c.recompute()
}

// RemoveLine deletes the line for productID if present.
func (c *Cart) RemoveLine(productID int64) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	c.recompute()
}

func (c *Cart) Clear() {
	c.lines = nil
	c.total = decimal.Zero
}

func (c *Cart) indexOf(productID int64) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) recompute() {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	c.total = total
}

type lineView struct {
	Line
	Subtotal decimal.Decimal `json:"subtotal"`
}

type cartView struct {
	Lines     []lineView      `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

type cartState struct {
	Lines []Line `json:"lines"`
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	view := cartView{
		Lines:     make([]lineView, 0, len(c.lines)),
		Total:     c.total,
		ItemCount: c.ItemCount(),
	}
	for _, l := range c.lines {
		view.Lines = append(view.Lines, lineView{Line: l, Subtotal: l.Subtotal()})
	}
	return json.Marshal(view)
}

// UnmarshalJSON rebuilds the cart from its lines. Stored totals and
// subtotals are ignored and recomputed; duplicate and non-positive lines are
// normalized away.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var state cartState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	c.Clear()
	for _, l := range state.Lines {
		c.AddLine(l.ProductID, l.Name, l.UnitPrice, l.Quantity, l.Image)
	}
	return nil
}
