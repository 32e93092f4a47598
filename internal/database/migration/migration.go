package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_sequence_claim_number",
		SQL:  `CREATE SEQUENCE IF NOT EXISTS claim_number_seq START 100001;`,
	},
	{
		Name: "create_table_claims",
		SQL: `CREATE TABLE IF NOT EXISTS claims (
  id                       UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  claim_number             TEXT        NOT NULL UNIQUE,
  policy_number            TEXT        NOT NULL,
  policy_status            TEXT        NOT NULL,
  incident_type            TEXT        NOT NULL,
  incident_date            TIMESTAMPTZ NOT NULL,
  description              TEXT,
  location                 TEXT,
  vehicle_make             TEXT,
  vehicle_model            TEXT,
  vehicle_year             INT,
  vehicle_vin              TEXT,
  vehicle_license_plate    TEXT,
  vehicle_ownership_status TEXT,
  vehicle_odometer         BIGINT,
  vehicle_purchase_date    TIMESTAMPTZ,
  status                   TEXT        NOT NULL DEFAULT 'submitted',
  severity_level           TEXT,
  confidence_score         DOUBLE PRECISION CHECK (confidence_score >= 0 AND confidence_score <= 1),
  routing_decision         TEXT,
  ai_assessment            JSONB,
  policy_document_url      TEXT,
  created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_claim_files",
		SQL: `CREATE TABLE IF NOT EXISTS claim_files (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  claim_id        UUID        NOT NULL REFERENCES claims(id),
  file_name       TEXT        NOT NULL,
  file_type       TEXT        NOT NULL,
  storage_key     TEXT        NOT NULL,
  file_url        TEXT        NOT NULL,
  file_size       BIGINT      NOT NULL CHECK (file_size >= 0),
  damage_detected JSONB,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_claim_questions",
		SQL: `CREATE TABLE IF NOT EXISTS claim_questions (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  claim_id      UUID        NOT NULL REFERENCES claims(id),
  question      TEXT        NOT NULL,
  question_type TEXT        NOT NULL DEFAULT 'incident_details',
  is_required   BOOLEAN     NOT NULL DEFAULT false,
  answer        TEXT,
  asked_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  answered_at   TIMESTAMPTZ,
  CONSTRAINT answer_and_answered_at_together CHECK ((answer IS NULL) = (answered_at IS NULL))
);`,
	},
	{
		Name: "create_index_claims_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_claims_created_at ON claims (created_at DESC);`,
	},
	{
		Name: "create_index_claims_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_claims_status ON claims (status);`,
	},
	{
		Name: "create_index_claim_files_claim_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_claim_files_claim_id ON claim_files (claim_id);`,
	},
	{
		Name: "create_index_claim_questions_claim_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_claim_questions_claim_id ON claim_questions (claim_id);`,
	},
}

// EnsureMigrated checks if the 'claims' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.claims') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
