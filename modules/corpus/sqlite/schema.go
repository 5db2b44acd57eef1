package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS questions (
		id             TEXT PRIMARY KEY,
		category       TEXT NOT NULL DEFAULT '',
		subcategory    TEXT NOT NULL DEFAULT '',
		exam_id        TEXT NOT NULL DEFAULT '',
		subcategory_id TEXT NOT NULL DEFAULT '',
		text           TEXT NOT NULL,
		created_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category)`,

	`CREATE INDEX IF NOT EXISTS idx_questions_exam ON questions(exam_id, subcategory_id)`,

	`CREATE VIRTUAL TABLE IF NOT EXISTS questions_fts USING fts5(
		text,
		content=questions,
		content_rowid=rowid
	)`,

	`CREATE TRIGGER IF NOT EXISTS questions_ai AFTER INSERT ON questions BEGIN
		INSERT INTO questions_fts(rowid, text) VALUES (new.rowid, new.text);
	END`,

	`CREATE TRIGGER IF NOT EXISTS questions_ad AFTER DELETE ON questions BEGIN
		INSERT INTO questions_fts(questions_fts, rowid, text) VALUES ('delete', old.rowid, old.text);
	END`,

	`CREATE TRIGGER IF NOT EXISTS questions_au AFTER UPDATE ON questions BEGIN
		INSERT INTO questions_fts(questions_fts, rowid, text) VALUES ('delete', old.rowid, old.text);
		INSERT INTO questions_fts(rowid, text) VALUES (new.rowid, new.text);
	END`,

	`CREATE TABLE IF NOT EXISTS curated_questions (
		id          TEXT PRIMARY KEY,
		institution TEXT NOT NULL,
		background  TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		subcategory TEXT NOT NULL DEFAULT '',
		text        TEXT NOT NULL,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_curated_institution ON curated_questions(institution)`,
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(db *sql.DB) error {
	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	return nil
}
