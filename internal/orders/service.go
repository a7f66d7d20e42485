package orders

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
	"github.com/angelmondragon/wholesale-backend/pkg/pagination"
	"github.com/angelmondragon/wholesale-backend/pkg/types"
)

// Service writes to and reads the order log.
type Service interface {
	Log(ctx context.Context, draft Draft) (*Record, error)
	List(ctx context.Context, params pagination.Params) ([]Record, types.Page, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (string, error)
}

type service struct {
	repo   *Repository
	tx     txRunner
	events eventEmitter
	logg   *logger.Logger
}

// NewService constructs the database-backed order log.
func NewService(repo *Repository, tx txRunner, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, events: events, logg: logg}, nil
}

// Log inserts the order and queues its order_logged event atomically.
func (s *service) Log(ctx context.Context, draft Draft) (*Record, error) {
	draft = draft.normalized()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	row := toModel(draft)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Insert(ctx, &row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order log")
		}
		_, err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     outbox.EventOrderLogged,
			AggregateType: outbox.AggregateOrder,
			AggregateID:   strconv.FormatInt(row.ID, 10),
			Data: outbox.OrderLoggedEvent{
				OrderID:    row.ID,
				TotalPrice: row.TotalPrice,
				ItemCount:  draft.ItemCount(),
				LineCount:  len(draft.Products),
				LoggedAt:   row.CreatedAt.UTC(),
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outbox: queue order_logged")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	record := fromModel(row)
	s.logg.Info(s.logg.WithField(ctx, "order_id", record.ID), "order logged")
	return &record, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]Record, types.Page, error) {
	params = params.Normalize()
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, types.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}
	return toRecords(rows), types.Page{Limit: params.Limit, Offset: params.Offset, Count: len(rows)}, nil
}

func toRecords(rows []models.OrderLog) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out
}

type fallbackService struct {
	logg *logger.Logger
	now  func() time.Time
}

// NewFallback returns the order log used without a database: drafts are
// validated and echoed back with a synthetic id, and the list is empty.
func NewFallback(logg *logger.Logger) Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &fallbackService{logg: logg, now: time.Now}
}

func (f *fallbackService) Log(ctx context.Context, draft Draft) (*Record, error) {
	draft = draft.normalized()
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	now := f.now().UTC()
	f.logg.Warn(ctx, "database not configured, order logging skipped")
	return &Record{ID: now.UnixMilli(), Draft: draft, CreatedAt: now}, nil
}

func (f *fallbackService) List(_ context.Context, params pagination.Params) ([]Record, types.Page, error) {
	params = params.Normalize()
	return []Record{}, types.Page{Limit: params.Limit, Offset: params.Offset}, nil
}
