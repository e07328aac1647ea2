package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/feedless/rss-dedup/app/subscription"
)

const lastPurgeKey = "last_purge"

var _ RegistryRepository = (*registryRepository)(nil)

type registryRepository struct {
	db *DB
}

func NewRegistryRepository(db *DB) RegistryRepository {
	return &registryRepository{db: db}
}

func (r *registryRepository) GetAll() (subscription.Registry, error) {
	rows, err := r.db.Query(`
		SELECT source_url, output_id, filename, title
		FROM registry
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	defer rows.Close()

	reg := make(subscription.Registry)
	for rows.Next() {
		var sourceURL string
		var entry subscription.Entry
		if err := rows.Scan(&sourceURL, &entry.OutputID, &entry.Filename, &entry.Title); err != nil {
			return nil, fmt.Errorf("failed to scan registry row: %w", err)
		}
		reg[sourceURL] = entry
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read registry rows: %w", err)
	}

	return reg, nil
}

// Replace swaps the stored registry for the merged one in a single
// transaction, so a crash mid-save never leaves a half-merged registry.
func (r *registryRepository) Replace(reg subscription.Registry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM registry`); err != nil {
		return fmt.Errorf("failed to clear registry: %w", err)
	}

	for sourceURL, entry := range reg {
		_, err := tx.Exec(`
			INSERT INTO registry (source_url, output_id, filename, title, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		`, sourceURL, entry.OutputID, entry.Filename, entry.Title)
		if err != nil {
			return fmt.Errorf("failed to insert registry entry for %s: %w", sourceURL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registry: %w", err)
	}

	return nil
}

func (r *registryRepository) GetLastPurge() (time.Time, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM state WHERE key = ?`, lastPurgeKey).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load last purge time: %w", err)
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last purge time %q: %w", value, err)
	}

	return t, nil
}

func (r *registryRepository) SetLastPurge(t time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, lastPurgeKey, t.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store last purge time: %w", err)
	}

	return nil
}
