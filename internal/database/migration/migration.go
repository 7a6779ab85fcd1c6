package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chunkvault/internal/logging"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_assembled_files",
		SQL: `CREATE TABLE IF NOT EXISTS assembled_files (
  id           UUID        PRIMARY KEY,
  filename     TEXT        NOT NULL UNIQUE,
  size         BIGINT      NOT NULL CHECK (size >= 0),
  content_type TEXT        NOT NULL,
  chunks       INTEGER     NOT NULL CHECK (chunks > 0),
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_assembled_files_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_assembled_files_created_at ON assembled_files (created_at);`,
	},
}

// EnsureMigrated creates the file registry schema unless assembled_files
// already exists. All steps run in one transaction; a failing step leaves the
// database untouched.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logging.Logger, dbHost string) error {
	start := time.Now()
	log = log.With(map[string]any{"component": "database", "db_host": dbHost})

	log.Info("db_migration_check", map[string]any{"status": "starting"})

	var exists bool
	query := "SELECT to_regclass('public.assembled_files') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		err = fmt.Errorf("failed to check sentinel table: %w", err)
		log.Error("db_migration_failed", err, map[string]any{
			"status":      "error",
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return err
	}

	if exists {
		log.Info("db_migration_skip", map[string]any{
			"status":      "success",
			"reason":      "schema already exists, skipping migration",
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	log.Info("db_migration_start", map[string]any{"status": "in_progress", "steps": len(steps)})

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for _, step := range steps {
		stepStart := time.Now()
		if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
			_ = tx.Rollback()
			log.Error("db_migration_failed", err, map[string]any{
				"status":         "rolled_back",
				"migration_step": step.Name,
				"duration_ms":    time.Since(start).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info("db_migration_step", map[string]any{
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}

	log.Info("db_migration_success", map[string]any{
		"status":      "success",
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}
