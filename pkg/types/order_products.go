package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderProduct is the product snapshot stored with an order log entry.
type OrderProduct struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// OrderProducts persists as a JSON array.
type OrderProducts []OrderProduct

func (p OrderProducts) Value() (driver.Value, error) {
	if p == nil {
		p = OrderProducts{}
	}
	return marshalJSONColumn(p)
}

func (p *OrderProducts) Scan(src any) error {
	return scanJSONColumn(src, p, "order products")
}

// Quantities persists as a JSON array parallel to OrderProducts.
type Quantities []int

func (q Quantities) Value() (driver.Value, error) {
	if q == nil {
		q = Quantities{}
	}
	return marshalJSONColumn(q)
}

func (q *Quantities) Scan(src any) error {
	return scanJSONColumn(src, q, "quantities")
}

func marshalJSONColumn(v any) (driver.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func scanJSONColumn(src any, dst any, label string) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		raw = []byte("[]")
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("%s: unsupported Scan type %T", label, src)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	return nil
}
