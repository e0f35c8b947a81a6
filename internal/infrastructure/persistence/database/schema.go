package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TableCreator builds the checkout schema. Every statement is idempotent.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all table and index statements.
func (tc *TableCreator) CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.ExecContext(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS pages (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		product_name TEXT NOT NULL DEFAULT '',
		product_description TEXT NOT NULL DEFAULT '',
		amount_cents INTEGER NOT NULL DEFAULT 0,
		custom_title TEXT NOT NULL DEFAULT '',
		custom_subtitle TEXT NOT NULL DEFAULT '',
		primary_color TEXT NOT NULL DEFAULT '',
		background_color TEXT NOT NULL DEFAULT '',
		header_height INTEGER NOT NULL DEFAULT 0,
		logo_url TEXT NOT NULL DEFAULT '',
		logo_position TEXT NOT NULL DEFAULT '',
		logo_size INTEGER NOT NULL DEFAULT 0,
		show_logo BOOLEAN NOT NULL DEFAULT 0,
		require_phone BOOLEAN NOT NULL DEFAULT 0,
		success_message TEXT NOT NULL DEFAULT '',
		custom_elements TEXT NOT NULL DEFAULT '[]',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		page_id TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
		gateway_id TEXT NOT NULL DEFAULT '',
		amount_cents INTEGER NOT NULL,
		status TEXT NOT NULL,
		customer_name TEXT NOT NULL,
		customer_email TEXT NOT NULL,
		customer_tax_id TEXT NOT NULL,
		customer_phone TEXT NOT NULL DEFAULT '',
		pix_code TEXT NOT NULL DEFAULT '',
		qr_code_image TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMP NOT NULL,
		paid_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		encrypted BOOLEAN NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_pages_slug ON pages(slug)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_page_id ON payments(page_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_expires_at ON payments(status, expires_at)`,
}
