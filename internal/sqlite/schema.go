// This file holds the plan store schema.
package sqlite

// Schema DDL for all tables. Statements are idempotent so that Attach can run
// them against an existing database file.
const (
	createFilterPlans = `CREATE TABLE IF NOT EXISTS filter_plans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]',
    created_time TEXT NOT NULL,
    updated_time TEXT NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1
);`

	createFilterRules = `CREATE TABLE IF NOT EXISTS filter_rules (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    plan_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    source_table TEXT NOT NULL DEFAULT '',
    conditions TEXT NOT NULL,
    target_column TEXT NOT NULL DEFAULT '',
    order_index INTEGER NOT NULL DEFAULT 0,
    is_enabled INTEGER NOT NULL DEFAULT 1,
    FOREIGN KEY (plan_id) REFERENCES filter_plans(id)
);`

	createDataMappings = `CREATE TABLE IF NOT EXISTS data_mappings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    plan_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    source_table TEXT NOT NULL,
    source_match_coordinate TEXT NOT NULL,
    source_match_value TEXT NOT NULL,
    source_match_operator TEXT NOT NULL,
    source_value_coordinate TEXT NOT NULL,
    source_row_range TEXT NOT NULL DEFAULT '',
    target_table TEXT NOT NULL,
    target_match_coordinate TEXT NOT NULL,
    target_match_value TEXT NOT NULL,
    target_match_operator TEXT NOT NULL,
    target_insert_coordinate TEXT NOT NULL,
    target_row_range TEXT NOT NULL DEFAULT '',
    overwrite_existing INTEGER NOT NULL DEFAULT 0,
    order_index INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (plan_id) REFERENCES filter_plans(id)
);`

	createAppSettings = `CREATE TABLE IF NOT EXISTS app_settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    updated_time TEXT NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxFilterPlansActive = `CREATE INDEX IF NOT EXISTS idx_filter_plans_active ON filter_plans(is_active, updated_time);`
	idxFilterRulesPlan   = `CREATE INDEX IF NOT EXISTS idx_filter_rules_plan ON filter_rules(plan_id, order_index);`
	idxDataMappingsPlan  = `CREATE INDEX IF NOT EXISTS idx_data_mappings_plan ON data_mappings(plan_id, order_index);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createFilterPlans,
	createFilterRules,
	createDataMappings,
	createAppSettings,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxFilterPlansActive,
	idxFilterRulesPlan,
	idxDataMappingsPlan,
}
