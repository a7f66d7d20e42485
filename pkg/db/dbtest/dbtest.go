// Package dbtest opens an isolated in-memory SQLite database carrying the
// storefront schema, for repository and service tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/db"
)

var seq atomic.Int64

var schema = []string{
	`CREATE TABLE categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		image TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		images TEXT,
		stock INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE product_categories (
		product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		PRIMARY KEY (product_id, category_id)
	)`,
	`CREATE TABLE product_prices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		min_quantity INTEGER NOT NULL,
		max_quantity INTEGER,
		price NUMERIC NOT NULL
	)`,
	`CREATE TABLE orders_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		products TEXT NOT NULL,
		quantities TEXT NOT NULL,
		total_price NUMERIC NOT NULL,
		user_contact TEXT,
		user_name TEXT,
		user_email TEXT,
		user_address TEXT,
		notes TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE TABLE admin_credentials (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		updated_at DATETIME
	)`,
}

// Open returns a client over a fresh named in-memory database.
func Open(t *testing.T) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:dbtest_%d?mode=memory&cache=shared&_foreign_keys=1", seq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return db.NewFromConn(conn)
}
