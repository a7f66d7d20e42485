package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wholesale-backend/internal/fallback"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	catalog, _ := fallback.New()
	svc, err := NewService(NewMemoryStore(), catalog, nil)
	require.NoError(t, err)
	return svc
}

func TestAddItemResolvesTierPrice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "sess", 1, 12)
	require.NoError(t, err)
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "iPhone 15 Pro", lines[0].Name)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.NewFromInt(87000)))
	assert.NotEmpty(t, lines[0].Image)

	c, err = svc.AddItem(ctx, "sess", 1, 2)
	require.NoError(t, err)
	require.Len(t, c.Lines(), 1)
	assert.True(t, c.Lines()[0].UnitPrice.Equal(decimal.NewFromInt(89000)))
	assert.True(t, c.Total().Equal(decimal.NewFromInt(178000)))
}

func TestAddItemRejectsUnknownAndOverStock(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess", 404, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddItem(ctx, "sess", 3, 21)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	c, err := svc.Get(ctx, "sess")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestUpdateRemoveClearPersist(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess", 4, 10)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "sess", 2, 1)
	require.NoError(t, err)

	c, err := svc.UpdateQuantity(ctx, "sess", 4, 60)
	require.NoError(t, err)
	assert.True(t, c.Lines()[0].UnitPrice.Equal(decimal.NewFromInt(19000)))

	c, err = svc.RemoveItem(ctx, "sess", 2)
	require.NoError(t, err)
	assert.Len(t, c.Lines(), 1)

	reloaded, err := svc.Get(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, 60, reloaded.ItemCount())

	c, err = svc.AddItem(ctx, "sess", 4, 0)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	_, err = svc.AddItem(ctx, "sess", 1, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, "sess"))
	cleared, err := svc.Get(ctx, "sess")
	require.NoError(t, err)
	assert.True(t, cleared.IsEmpty())
}

func TestUpdateQuantityHeldToStock(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "sess", 3, 2)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, "sess", 3, 21)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	c, err := svc.Get(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, 2, c.ItemCount())

	c, err = svc.UpdateQuantity(ctx, "sess", 3, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, c.ItemCount())

	c, err = svc.UpdateQuantity(ctx, "sess", 404, 5)
	require.NoError(t, err, "absent lines are left alone without a catalog lookup")
	assert.Equal(t, 20, c.ItemCount())
}
