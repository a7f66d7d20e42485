package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
)

func TestEmitStoresEnvelope(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, nil)
	ctx := context.Background()

	var eventID string
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		eventID, err = svc.Emit(ctx, tx, DomainEvent{
			EventType:     EventOrderLogged,
			AggregateType: AggregateOrder,
			AggregateID:   "7",
			Data:          OrderLoggedEvent{OrderID: 7, TotalPrice: decimal.NewFromInt(500)},
		})
		return err
	})
	require.NoError(t, err)
	require.NotEmpty(t, eventID)

	var rows []models.OutboxEvent
	require.NoError(t, client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "7", rows[0].AggregateID)

	env, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, eventID, env.EventID)
	assert.Equal(t, 1, env.Version)
	assert.JSONEq(t, `{"orderId":7,"totalPrice":"500","itemCount":0,"lineCount":0,"loggedAt":"0001-01-01T00:00:00Z"}`, string(env.Data))
}

func TestEmitValidatesInput(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)

	_, err := svc.Emit(context.Background(), nil, DomainEvent{})
	assert.Error(t, err)

	_, err = svc.Emit(context.Background(), &gorm.DB{}, DomainEvent{EventType: EventOrderLogged})
	assert.Error(t, err)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, nil)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
			_, err := svc.Emit(ctx, tx, DomainEvent{EventType: EventOrderLogged, AggregateType: AggregateOrder, AggregateID: id, Data: map[string]string{"id": id}})
			return err
		}))
	}

	var fetched []models.OutboxEvent
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		fetched, err = repo.FetchUnpublishedForPublish(tx, 10, 3)
		if err != nil {
			return err
		}
		if err := repo.MarkPublishedTx(tx, fetched[0].ID); err != nil {
			return err
		}
		if err := repo.MarkFailedTx(tx, fetched[1].ID, errors.New("timeout")); err != nil {
			return err
		}
		return repo.MarkTerminalTx(tx, fetched[2].ID, errors.New("bad payload"), 3)
	}))
	require.Len(t, fetched, 3)

	pending, err := repo.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)

	var remaining []models.OutboxEvent
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		remaining, err = repo.FetchUnpublishedForPublish(tx, 10, 3)
		return err
	}))
	require.Len(t, remaining, 1)
	assert.Equal(t, fetched[1].ID, remaining[0].ID)
	assert.Equal(t, 1, remaining[0].AttemptCount)
	require.NotNil(t, remaining[0].LastError)
	assert.Equal(t, "timeout", *remaining[0].LastError)

	deleted, err := repo.DeletePublishedBefore(ctx, nil, time.Now().UTC().Add(time.Hour), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestEmitStampsClockAndKeepsVersion(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(NewRepository(client.DB()), nil)
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	svc.now = func() time.Time { return at }
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := svc.Emit(ctx, tx, DomainEvent{EventType: EventOrderLogged, AggregateType: AggregateOrder, AggregateID: "4", Data: struct{}{}, Version: 2})
		return err
	}))

	var row models.OutboxEvent
	require.NoError(t, client.DB().First(&row).Error)
	env, err := DecodeEnvelope(row.Payload)
	require.NoError(t, err)
	assert.Equal(t, 2, env.Version)
	assert.True(t, env.OccurredAt.Equal(at))
	assert.Equal(t, time.UTC, env.OccurredAt.Location())
}
