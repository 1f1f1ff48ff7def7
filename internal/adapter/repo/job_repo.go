package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"stylebot/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository using PostgreSQL.
type JobRepositoryPG struct {
	q Querier
}

// NewJobRepository constructs the repository.
func NewJobRepository(q Querier) *JobRepositoryPG {
	return &JobRepositoryPG{q: q}
}

const jobColumns = `id, chat_id, job_name, step, content_asset, content_message_id,
       content_requester, compress_result, style_assets, parameters, result_asset,
       progress_message_id, created, started, completed, consumed_units`

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, rec *domain.JobRecord) error {
	params, err := json.Marshal(rec.Parameters)
	if err != nil {
		return fmt.Errorf("job create: encode parameters: %w", err)
	}
	_, err = r.q.Exec(ctx, `
INSERT INTO job_records (
    id, chat_id, job_name, step, content_asset, content_message_id,
    content_requester, compress_result, style_assets, parameters, result_asset,
    progress_message_id, created, started, completed, consumed_units
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
);
`,
		rec.ID,
		rec.ChatID,
		rec.JobName,
		string(rec.Step),
		rec.ContentAsset,
		rec.ContentMessageID,
		rec.ContentRequester,
		rec.CompressResult,
		rec.StyleAssets,
		params,
		rec.ResultAsset,
		rec.ProgressMessageID,
		rec.Created,
		rec.Started,
		rec.Completed,
		rec.ConsumedUnits,
	)
	if err != nil {
		return fmt.Errorf("job create: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an existing record. The step predicate
// in the WHERE clause rejects writes that would regress a step behind the
// record's back; such a write reports domain.ErrInvalidTransition.
func (r *JobRepositoryPG) Update(ctx context.Context, rec *domain.JobRecord) error {
	params, err := json.Marshal(rec.Parameters)
	if err != nil {
		return fmt.Errorf("job update: encode parameters: %w", err)
	}
	tag, err := r.q.Exec(ctx, `
UPDATE job_records SET
    job_name = $2,
    step = $3,
    style_assets = $4,
    parameters = $5,
    result_asset = $6,
    progress_message_id = $7,
    started = $8,
    completed = $9,
    consumed_units = $10
WHERE id = $1
  AND (step = $3 OR
       (step = 'collecting_styles' AND $3 IN ('running', 'completed', 'error')) OR
       (step = 'running' AND $3 IN ('completed', 'error')));
`,
		rec.ID,
		rec.JobName,
		string(rec.Step),
		rec.StyleAssets,
		params,
		rec.ResultAsset,
		rec.ProgressMessageID,
		rec.Started,
		rec.Completed,
		rec.ConsumedUnits,
	)
	if err != nil {
		return fmt.Errorf("job update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// GetByID returns the record, or domain.ErrNotFound.
func (r *JobRepositoryPG) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobRecord, error) {
	row := r.q.QueryRow(ctx, `SELECT `+jobColumns+` FROM job_records WHERE id = $1;`, id)
	return scanJob(row)
}

// GetByChatAndName looks a record up by its launch-time name within a chat.
func (r *JobRepositoryPG) GetByChatAndName(ctx context.Context, chatID int64, jobName string) (*domain.JobRecord, error) {
	row := r.q.QueryRow(ctx, `
SELECT `+jobColumns+` FROM job_records WHERE chat_id = $1 AND job_name = $2;`, chatID, jobName)
	return scanJob(row)
}

// CountStartedSince counts the chat's records whose started timestamp falls
// after the given instant. This is the quota counter: the persisted history
// itself, not a separate mutable value.
func (r *JobRepositoryPG) CountStartedSince(ctx context.Context, chatID int64, since time.Time) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `
SELECT COUNT(*) FROM job_records WHERE chat_id = $1 AND started >= $2;`, chatID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("job count started since: %w", err)
	}
	return count, nil
}

func scanJob(row pgx.Row) (*domain.JobRecord, error) {
	var rec domain.JobRecord
	var step string
	var params []byte
	if err := row.Scan(
		&rec.ID,
		&rec.ChatID,
		&rec.JobName,
		&step,
		&rec.ContentAsset,
		&rec.ContentMessageID,
		&rec.ContentRequester,
		&rec.CompressResult,
		&rec.StyleAssets,
		&params,
		&rec.ResultAsset,
		&rec.ProgressMessageID,
		&rec.Created,
		&rec.Started,
		&rec.Completed,
		&rec.ConsumedUnits,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("job scan: %w", err)
	}
	rec.Step = domain.Step(step)
	if err := json.Unmarshal(params, &rec.Parameters); err != nil {
		return nil, fmt.Errorf("job scan: decode parameters: %w", err)
	}
	return &rec, nil
}
