// This file seeds built-in application settings on attach.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"
)

// Built-in setting keys.
const (
	SettingSchemaVersion = "schema_version"
	SettingLastRunID     = "last_run_id"
	SettingLastOutputDir = "last_output_dir"
)

// schemaVersion is written on first attach and never rewritten by seeding.
const schemaVersion = "1"

// builtInSetting describes a setting to seed on attach.
type builtInSetting struct {
	key         string
	value       string
	description string
}

var builtInSettings = []builtInSetting{
	{SettingSchemaVersion, schemaVersion, "Database schema version"},
	{SettingLastRunID, "", "Run ID of the most recent plan execution"},
	{SettingLastOutputDir, "", "Directory the most recent run wrote results to"},
}

// seedSettings inserts the built-in settings that are missing. Existing
// values are left alone, so seeding is idempotent.
func seedSettings(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now())
	for _, s := range builtInSettings {
		_, err := tx.Exec(
			"INSERT OR IGNORE INTO app_settings (key, value, description, updated_time) VALUES (?, ?, ?, ?)",
			s.key, s.value, s.description, now,
		)
		if err != nil {
			return fmt.Errorf("seeding setting %s: %w", s.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}
	return nil
}
