package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/pagination"
)

type row struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&row{}))
	return conn
}

func TestBaseBindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	bound := base.DB(ctx)
	require.NotNil(t, bound.Statement)
	assert.Equal(t, "value", bound.Statement.Context.Value(ctxKey{}))
}

func TestBaseTxRunsOnTransaction(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, base.Tx(tx).DB(context.Background()).Create(&row{Name: "rolled back"}).Error)
		return errors.New("abort")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&row{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWindowClampsLimit(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&row{Name: "r"}).Error)
	}

	var rows []row
	require.NoError(t, Window(db.Order("id"), pagination.Params{Limit: 0, Offset: 1}).Find(&rows).Error)
	assert.Len(t, rows, 2)

	stmt := Window(db.Session(&gorm.Session{DryRun: true}).Model(&row{}), pagination.Params{Limit: 1000}).Find(&[]row{}).Statement
	assert.Contains(t, stmt.SQL.String(), "LIMIT 100")
}

func TestIgnoreNotFound(t *testing.T) {
	found, err := IgnoreNotFound(nil)
	assert.True(t, found)
	assert.NoError(t, err)

	found, err = IgnoreNotFound(gorm.ErrRecordNotFound)
	assert.False(t, found)
	assert.NoError(t, err)

	boom := errors.New("boom")
	_, err = IgnoreNotFound(boom)
	assert.ErrorIs(t, err, boom)
}
