package outbox

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderLogged = "order_logged"

	AggregateOrder = "order"
)

// OrderLoggedEvent is published after a checkout is written to the order log.
type OrderLoggedEvent struct {
	OrderID    int64           `json:"orderId"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	ItemCount  int             `json:"itemCount"`
	LineCount  int             `json:"lineCount"`
	LoggedAt   time.Time       `json:"loggedAt"`
}
