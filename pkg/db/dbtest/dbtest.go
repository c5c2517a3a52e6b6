package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns an isolated in-memory database loaded with the console
// schema. This is a sqlite rendition of the production schema in
// pkg/migrate/migrations, for repository and service tests. sqlite has no
// server-side uuid default, so tests must set IDs explicitly.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:dbtest_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, ddl := range schema {
		if err := db.Exec(ddl).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db
}

var schema = []string{
	`CREATE TABLE products (
		id text PRIMARY KEY,
		name text NOT NULL,
		category_id text,
		is_active boolean NOT NULL DEFAULT true,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE variations (
		id text PRIMARY KEY,
		product_id text NOT NULL,
		sku text NOT NULL,
		list_price numeric NOT NULL,
		attributes text,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE outlet_offers (
		id text PRIMARY KEY,
		variation_id text NOT NULL,
		discount_percent numeric NOT NULL,
		remaining_qty integer NOT NULL DEFAULT 0,
		reason text NOT NULL,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE warehouses (
		id text PRIMARY KEY,
		code text NOT NULL UNIQUE,
		name text NOT NULL,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE stock_records (
		id text PRIMARY KEY,
		variation_id text NOT NULL,
		warehouse_id text NOT NULL,
		quantity integer NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		reserved integer NOT NULL DEFAULT 0 CHECK (reserved >= 0),
		updated_at datetime,
		UNIQUE (variation_id, warehouse_id),
		CHECK (reserved <= quantity)
	)`,
	`CREATE TABLE stock_movements (
		id text PRIMARY KEY,
		variation_id text NOT NULL,
		warehouse_id text NOT NULL,
		kind text NOT NULL,
		quantity_delta integer NOT NULL,
		previous_quantity integer NOT NULL,
		new_quantity integer NOT NULL,
		order_id text,
		notes text,
		created_at datetime
	)`,
	`CREATE TABLE customers (
		id text PRIMARY KEY,
		name text NOT NULL,
		document text,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE partners (
		id text PRIMARY KEY,
		name text NOT NULL,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE users (
		id text PRIMARY KEY,
		name text NOT NULL,
		email text NOT NULL UNIQUE,
		role text NOT NULL,
		is_active boolean NOT NULL DEFAULT true,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE carts (
		id text PRIMARY KEY,
		customer_id text NOT NULL,
		partner_id text,
		salesperson_id text,
		status text NOT NULL DEFAULT 'active',
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE cart_items (
		id text PRIMARY KEY,
		cart_id text NOT NULL,
		variation_id text NOT NULL,
		quantity integer NOT NULL,
		unit_price numeric NOT NULL,
		subtotal numeric NOT NULL,
		warehouse_id text,
		created_at datetime,
		updated_at datetime,
		UNIQUE (cart_id, variation_id)
	)`,
	`CREATE TABLE orders (
		id text PRIMARY KEY,
		cart_id text NOT NULL UNIQUE,
		customer_id text NOT NULL,
		partner_id text,
		salesperson_id text NOT NULL,
		notes text,
		consignment boolean NOT NULL DEFAULT false,
		consignment_deadline_days integer,
		commitment_mode text NOT NULL,
		status text NOT NULL,
		total numeric NOT NULL,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE order_items (
		id text PRIMARY KEY,
		order_id text NOT NULL,
		variation_id text NOT NULL,
		quantity integer NOT NULL,
		unit_price numeric NOT NULL,
		subtotal numeric NOT NULL,
		warehouse_id text,
		created_at datetime
	)`,
	`CREATE TABLE stock_reservations (
		id text PRIMARY KEY,
		order_item_id text NOT NULL,
		variation_id text NOT NULL,
		warehouse_id text NOT NULL,
		quantity integer NOT NULL CHECK (quantity > 0),
		released boolean NOT NULL DEFAULT false,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE ledger_entries (
		id text PRIMARY KEY,
		kind text NOT NULL,
		order_id text NOT NULL,
		amount numeric NOT NULL,
		occurred_at datetime NOT NULL,
		created_at datetime
	)`,
}
