package listing

import (
	"context"
	"fmt"
)

// schema is the subset of the Listing Store read here, portable across both drivers.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT,
		gym_type TEXT NOT NULL,
		price_range TEXT,
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL,
		state TEXT,
		country TEXT NOT NULL,
		postal_code TEXT,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		phone TEXT,
		email TEXT,
		website TEXT,
		hours TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		subscription_tier TEXT NOT NULL DEFAULT 'free',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`,
	`CREATE TABLE IF NOT EXISTS attributes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS listing_attributes (
		listing_id TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		attribute_id TEXT NOT NULL REFERENCES attributes(id) ON DELETE CASCADE,
		value TEXT,
		quantity INTEGER,
		PRIMARY KEY (listing_id, attribute_id)
	)`,
}

// Migrate creates the tables when missing. Intended for local SQLite databases;
// production schemas are owned by the Listing Store.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate listing store: %w", err)
		}
	}
	return nil
}
