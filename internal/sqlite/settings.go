// This file implements the key/value application settings table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// Setting is one row of app_settings.
type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_time"`
}

// GetSetting returns the value stored under key, or ErrSettingNotFound.
func (b *Backend) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := b.withDB(func(db *sql.DB) error {
		err := db.QueryRowContext(ctx, "SELECT value FROM app_settings WHERE key = ?", key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %q", types.ErrSettingNotFound, key)
		}
		if err != nil {
			return fmt.Errorf("reading setting %q: %w", key, err)
		}
		return nil
	})
	return value, err
}

// SetSetting stores value under key, creating the row when needed. The
// description of an existing setting is kept.
func (b *Backend) SetSetting(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: setting key must not be empty", types.ErrInvalidName)
	}
	return b.withDB(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`INSERT INTO app_settings (key, value, updated_time) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_time = excluded.updated_time`,
			key, value, formatTime(time.Now()))
		if err != nil {
			return fmt.Errorf("writing setting %q: %w", key, err)
		}
		return nil
	})
}

// Settings returns every setting ordered by key.
func (b *Backend) Settings(ctx context.Context) ([]Setting, error) {
	var out []Setting
	err := b.withDB(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, "SELECT key, value, description, updated_time FROM app_settings ORDER BY key")
		if err != nil {
			return fmt.Errorf("listing settings: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				s       Setting
				updated string
			)
			if err := rows.Scan(&s.Key, &s.Value, &s.Description, &updated); err != nil {
				return fmt.Errorf("scanning setting: %w", err)
			}
			if s.UpdatedAt, err = parseTime(updated); err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}
