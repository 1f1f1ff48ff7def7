package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stylebot/internal/domain"
)

// ChatRepositoryPG implements domain.ChatRepository using PostgreSQL.
type ChatRepositoryPG struct {
	q Querier
}

// NewChatRepository constructs the repository.
func NewChatRepository(q Querier) *ChatRepositoryPG {
	return &ChatRepositoryPG{q: q}
}

// Get returns the chat by its platform id, or domain.ErrNotFound.
func (r *ChatRepositoryPG) Get(ctx context.Context, id int64) (*domain.Chat, error) {
	row := r.q.QueryRow(ctx, `
SELECT id, num_iter_max, img_height_max, style_count_max, requests_per_day,
       language, default_parameters, active_job_id, created, last_activity
FROM chats
WHERE id = $1;
`, id)

	var chat domain.Chat
	var params []byte
	if err := row.Scan(
		&chat.ID,
		&chat.NumIterMax,
		&chat.ImgHeightMax,
		&chat.StyleCountMax,
		&chat.RequestsPerDay,
		&chat.Language,
		&params,
		&chat.ActiveJobID,
		&chat.Created,
		&chat.LastActivity,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("chat get: %w", err)
	}
	if err := json.Unmarshal(params, &chat.DefaultParameters); err != nil {
		return nil, fmt.Errorf("chat get: decode parameters: %w", err)
	}
	return &chat, nil
}

// Save upserts the chat.
func (r *ChatRepositoryPG) Save(ctx context.Context, chat *domain.Chat) error {
	params, err := json.Marshal(chat.DefaultParameters)
	if err != nil {
		return fmt.Errorf("chat save: encode parameters: %w", err)
	}
	_, err = r.q.Exec(ctx, `
INSERT INTO chats (
    id, num_iter_max, img_height_max, style_count_max, requests_per_day,
    language, default_parameters, active_job_id, created, last_activity
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
) ON CONFLICT (id) DO UPDATE SET
    num_iter_max = EXCLUDED.num_iter_max,
    img_height_max = EXCLUDED.img_height_max,
    style_count_max = EXCLUDED.style_count_max,
    requests_per_day = EXCLUDED.requests_per_day,
    language = EXCLUDED.language,
    default_parameters = EXCLUDED.default_parameters,
    active_job_id = EXCLUDED.active_job_id,
    last_activity = EXCLUDED.last_activity;
`,
		chat.ID,
		chat.NumIterMax,
		chat.ImgHeightMax,
		chat.StyleCountMax,
		chat.RequestsPerDay,
		chat.Language,
		params,
		chat.ActiveJobID,
		chat.Created,
		chat.LastActivity,
	)
	if err != nil {
		return fmt.Errorf("chat save: %w", err)
	}
	return nil
}
