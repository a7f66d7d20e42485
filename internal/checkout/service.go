package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/wholesale-backend/internal/cart"
	"github.com/angelmondragon/wholesale-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/metrics"
)

const (
	defaultLogAttempts = 3
	retryBaseDelay     = 100 * time.Millisecond
)

// Result is returned to the storefront after a checkout.
type Result struct {
	Order       orders.Record `json:"order"`
	Message     string        `json:"message"`
	WhatsAppURL string        `json:"whatsapp_url"`
}

type Service interface {
	Checkout(ctx context.Context, sessionID string, customer Customer) (*Result, error)
}

type cartAccess interface {
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type orderLogger interface {
	Log(ctx context.Context, draft orders.Draft) (*orders.Record, error)
}

type ServiceParams struct {
	Carts          cartAccess
	Orders         orderLogger
	WhatsAppNumber string
	LogAttempts    int
	Metrics        *metrics.CheckoutMetrics
	Logger         *logger.Logger
}

type service struct {
	carts    cartAccess
	orders   orderLogger
	number   string
	attempts int
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order log required")
	}
	if params.WhatsAppNumber == "" {
		return nil, fmt.Errorf("whatsapp number required")
	}
	attempts := params.LogAttempts
	if attempts <= 0 {
		attempts = defaultLogAttempts
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		carts:    params.Carts,
		orders:   params.Orders,
		number:   params.WhatsAppNumber,
		attempts: attempts,
		metrics:  params.Metrics,
		logg:     logg,
		sleep:    sleepCtx,
	}, nil
}

// Checkout logs the session's cart as an order, builds the WhatsApp link and
// clears the cart. The cart is kept when the order could not be logged.
func (s *service) Checkout(ctx context.Context, sessionID string, customer Customer) (*Result, error) {
	ctx = s.logg.WithCartSession(ctx, sessionID)

	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	draft, err := BuildOrder(c, customer)
	if err != nil {
		s.metrics.Inc(metrics.CheckoutOutcomeRejected)
		return nil, err
	}

	record, err := s.logOrder(ctx, draft)
	if err != nil {
		s.metrics.Inc(metrics.CheckoutOutcomeLogFailure)
		return nil, err
	}

	message := ComposeMessage(c, customer)
	result := &Result{
		Order:       *record,
		Message:     message,
		WhatsAppURL: DeepLink(s.number, message),
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logg.Error(ctx, "failed to clear cart after checkout", err)
	}
	s.metrics.Inc(metrics.CheckoutOutcomeSuccess)
	s.logg.Info(s.logg.WithField(ctx, "order_id", record.ID), "checkout completed")
	return result, nil
}

func (s *service) logOrder(ctx context.Context, draft orders.Draft) (*orders.Record, error) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		record, err := s.orders.Log(ctx, draft)
		if err == nil {
			return record, nil
		}
		lastErr = err
		if !retryable(err) || attempt == s.attempts {
			break
		}
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"attempt": attempt, "error": err.Error()}), "order log failed, retrying")
		if err := s.sleep(ctx, retryBaseDelay*time.Duration(attempt)); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order log interrupted")
		}
	}
	if typed := pkgerrors.As(lastErr); typed != nil {
		return nil, lastErr
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "order log unavailable")
}

func retryable(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return true
	}
	return pkgerrors.MetadataFor(typed.Code()).Retryable
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
