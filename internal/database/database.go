// Package database opens the Postgres pool and creates the storefront tables.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects through the pgx database/sql driver and verifies the
// connection with a ping.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is empty")
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id uuid PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price numeric NOT NULL,
		discount_price numeric,
		image TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		stock INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS pincodes (code TEXT PRIMARY KEY)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id uuid PRIMARY KEY,
		full_name TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		home_address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		user_id uuid NOT NULL,
		total numeric NOT NULL,
		status TEXT NOT NULL DEFAULT 'Processing',
		shipping_details jsonb NOT NULL DEFAULT '{}',
		payment_method TEXT NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id SERIAL PRIMARY KEY,
		order_id INT NOT NULL REFERENCES orders(id),
		product_id INT NOT NULL,
		qty INT NOT NULL,
		price_at_purchase numeric NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS site_settings (
		key TEXT PRIMARY KEY,
		value jsonb NOT NULL
	)`,
}

const addImagesColumn = `ALTER TABLE products ADD COLUMN IF NOT EXISTS images text[]`

// EnsureSchema creates missing tables. The products.images column is only
// added when migrateImages is set; without it the product repository runs in
// single-image mode.
func EnsureSchema(ctx context.Context, db *sql.DB, migrateImages bool) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	if !migrateImages {
		log.Printf("[storage] images column migration skipped")
		return nil
	}
	if _, err := db.ExecContext(ctx, addImagesColumn); err != nil {
		return fmt.Errorf("add images column: %w", err)
	}
	return nil
}
