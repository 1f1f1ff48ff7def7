package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stylebot/internal/domain"
)

// SupportRepositoryPG implements domain.SupportRepository using PostgreSQL.
type SupportRepositoryPG struct {
	q Querier
}

// NewSupportRepository constructs the repository.
func NewSupportRepository(q Querier) *SupportRepositoryPG {
	return &SupportRepositoryPG{q: q}
}

// Create inserts a new support request.
func (r *SupportRepositoryPG) Create(ctx context.Context, req *domain.SupportRequest) error {
	_, err := r.q.Exec(ctx, `
INSERT INTO support_requests (
    id, original_message_id, original_chat_id, original_from_id,
    support_message_id, created
) VALUES ($1, $2, $3, $4, $5, $6);
`,
		req.ID,
		req.OriginalMessageID,
		req.OriginalChatID,
		req.OriginalFromID,
		req.SupportMessageID,
		req.Created,
	)
	if err != nil {
		return fmt.Errorf("support create: %w", err)
	}
	return nil
}

// GetBySupportMessageID returns the request forwarded as the given support-chat
// message, or domain.ErrNotFound.
func (r *SupportRepositoryPG) GetBySupportMessageID(ctx context.Context, messageID int64) (*domain.SupportRequest, error) {
	row := r.q.QueryRow(ctx, `
SELECT id, original_message_id, original_chat_id, original_from_id,
       support_message_id, replied_from_id, replied_message_id, created, replied
FROM support_requests
WHERE support_message_id = $1;
`, messageID)

	var req domain.SupportRequest
	if err := row.Scan(
		&req.ID,
		&req.OriginalMessageID,
		&req.OriginalChatID,
		&req.OriginalFromID,
		&req.SupportMessageID,
		&req.RepliedFromID,
		&req.RepliedMessageID,
		&req.Created,
		&req.Replied,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("support get: %w", err)
	}
	return &req, nil
}

// Update stamps the reply fields.
func (r *SupportRepositoryPG) Update(ctx context.Context, req *domain.SupportRequest) error {
	_, err := r.q.Exec(ctx, `
UPDATE support_requests SET
    replied_from_id = $2,
    replied_message_id = $3,
    replied = $4
WHERE id = $1;
`, req.ID, req.RepliedFromID, req.RepliedMessageID, req.Replied)
	if err != nil {
		return fmt.Errorf("support update: %w", err)
	}
	return nil
}
