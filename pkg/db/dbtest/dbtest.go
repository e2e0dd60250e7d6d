// Package dbtest opens isolated in-memory SQLite databases carrying the
// application schema for repository tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS stores (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  custom_domain TEXT UNIQUE,
  whatsapp_phone TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  parent_id TEXT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT,
  image_url TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  display_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS categories_store_parent_slug_key ON categories (store_id, parent_id, slug);`, `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  category_id TEXT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  price NUMERIC NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  weight_kg NUMERIC,
  height_cm NUMERIC,
  width_cm NUMERIC,
  length_cm NUMERIC,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price NUMERIC,
  weight_kg NUMERIC,
  height_cm NUMERIC,
  width_cm NUMERIC,
  length_cm NUMERIC
);`, `
CREATE TABLE IF NOT EXISTS delivery_zones (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  name TEXT NOT NULL,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS delivery_zone_ranges (
  id TEXT PRIMARY KEY,
  zone_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  cep_start TEXT NOT NULL,
  cep_end TEXT NOT NULL,
  CHECK (cep_end >= cep_start)
);`, `
CREATE TABLE IF NOT EXISTS delivery_zone_methods (
  id TEXT PRIMARY KEY,
  zone_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  kind TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL DEFAULT 0,
  free_shipping_threshold NUMERIC,
  delivery_time_min INTEGER,
  delivery_time_max INTEGER,
  carrier_service_id INTEGER
);`, `
CREATE TABLE IF NOT EXISTS carrier_configs (
  store_id TEXT PRIMARY KEY,
  enabled INTEGER NOT NULL DEFAULT 0,
  sandbox INTEGER NOT NULL DEFAULT 1,
  token_sealed TEXT NOT NULL DEFAULT '',
  origin_postal_code TEXT NOT NULL DEFAULT '',
  default_weight_kg NUMERIC NOT NULL DEFAULT 0,
  default_height_cm NUMERIC NOT NULL DEFAULT 0,
  default_width_cm NUMERIC NOT NULL DEFAULT 0,
  default_length_cm NUMERIC NOT NULL DEFAULT 0,
  origin_address_id TEXT,
  allowed_service_ids TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  order_number INTEGER NOT NULL,
  customer_name TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  customer_email TEXT,
  customer_document TEXT,
  address_street TEXT NOT NULL DEFAULT '',
  address_number TEXT NOT NULL DEFAULT '',
  address_complement TEXT,
  address_district TEXT NOT NULL DEFAULT '',
  address_city TEXT NOT NULL DEFAULT '',
  address_state TEXT NOT NULL DEFAULT '',
  address_postal_code TEXT NOT NULL DEFAULT '',
  subtotal NUMERIC NOT NULL,
  shipping_cost NUMERIC NOT NULL DEFAULT 0,
  discount NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  shipping_method_id TEXT,
  shipping_method_name TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  notes TEXT,
  melhor_envio_shipment_id TEXT,
  melhor_envio_service_id INTEGER,
  melhor_envio_service_name TEXT,
  melhor_envio_protocol TEXT,
  melhor_envio_label_url TEXT,
  melhor_envio_tracking TEXT,
  melhor_envio_tracking_status TEXT,
  melhor_envio_status TEXT NOT NULL DEFAULT 'none',
  shipment_version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_store_number ON orders (store_id, order_number);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  variant_id TEXT,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  unit_price NUMERIC NOT NULL,
  total NUMERIC NOT NULL,
  weight_kg NUMERIC,
  height_cm NUMERIC,
  width_cm NUMERIC,
  length_cm NUMERIC
);`,
}

// Open returns a fresh schema-loaded database private to the calling test.
// The pool is pinned to one connection so the in-memory database lives as
// long as the test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}
