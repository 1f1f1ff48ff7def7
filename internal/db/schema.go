package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// statements is applied in order at startup. Everything is idempotent so a
// restart against an already-migrated database is a no-op.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS chats (
    id               BIGINT PRIMARY KEY,
    num_iter_max     INT NOT NULL DEFAULT 10,
    img_height_max   INT NOT NULL DEFAULT 500,
    style_count_max  INT NOT NULL DEFAULT 3,
    requests_per_day INT NOT NULL DEFAULT 5,
    language         TEXT NOT NULL DEFAULT '',
    default_parameters JSONB NOT NULL,
    active_job_id    UUID,
    created          TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_activity    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	`CREATE TABLE IF NOT EXISTS job_records (
    id                  UUID PRIMARY KEY,
    chat_id             BIGINT NOT NULL,
    job_name            TEXT NOT NULL DEFAULT '',
    step                TEXT NOT NULL,
    content_asset       TEXT NOT NULL DEFAULT '',
    content_message_id  BIGINT NOT NULL DEFAULT 0,
    content_requester   BIGINT NOT NULL DEFAULT 0,
    compress_result     BOOLEAN NOT NULL DEFAULT FALSE,
    style_assets        TEXT[] NOT NULL DEFAULT '{}',
    parameters          JSONB NOT NULL,
    result_asset        TEXT NOT NULL DEFAULT '',
    progress_message_id BIGINT,
    created             TIMESTAMPTZ NOT NULL DEFAULT now(),
    started             TIMESTAMPTZ,
    completed           TIMESTAMPTZ,
    consumed_units      DOUBLE PRECISION
);`,
	`CREATE INDEX IF NOT EXISTS idx_job_records_chat_started
    ON job_records (chat_id, started);`,
	`CREATE INDEX IF NOT EXISTS idx_job_records_chat_name
    ON job_records (chat_id, job_name);`,
	`CREATE TABLE IF NOT EXISTS support_requests (
    id                  UUID PRIMARY KEY,
    original_message_id BIGINT NOT NULL,
    original_chat_id    BIGINT NOT NULL,
    original_from_id    BIGINT NOT NULL DEFAULT 0,
    support_message_id  BIGINT NOT NULL,
    replied_from_id     BIGINT,
    replied_message_id  BIGINT,
    created             TIMESTAMPTZ NOT NULL DEFAULT now(),
    replied             TIMESTAMPTZ
);`,
	`CREATE INDEX IF NOT EXISTS idx_support_requests_support_message
    ON support_requests (support_message_id);`,
}

// Migrate applies the schema to the connected database.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("db: apply statement %d: %w", i, err)
		}
	}
	return nil
}
