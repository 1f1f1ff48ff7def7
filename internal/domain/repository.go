package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChatRepository defines access methods for chats.
type ChatRepository interface {
	Get(ctx context.Context, id int64) (*Chat, error)
	Save(ctx context.Context, chat *Chat) error
}

// JobRepository defines persistence for job records.
type JobRepository interface {
	Create(ctx context.Context, rec *JobRecord) error
	Update(ctx context.Context, rec *JobRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*JobRecord, error)
	GetByChatAndName(ctx context.Context, chatID int64, jobName string) (*JobRecord, error)
	CountStartedSince(ctx context.Context, chatID int64, since time.Time) (int, error)
}

// SupportRepository handles persistence for support requests.
type SupportRepository interface {
	Create(ctx context.Context, req *SupportRequest) error
	GetBySupportMessageID(ctx context.Context, messageID int64) (*SupportRequest, error)
	Update(ctx context.Context, req *SupportRequest) error
}

// Repos bundles the repositories participating in one atomic section.
type Repos struct {
	Chats   ChatRepository
	Jobs    JobRepository
	Support SupportRepository
}

// Atomic runs closures under per-chat mutual exclusion. Every mutation that
// touches a chat's active-job pointer or a record's step goes through WithChat
// so the one-active-job invariant holds when events for the same chat race.
type Atomic interface {
	WithChat(ctx context.Context, chatID int64, fn func(ctx context.Context, r Repos) error) error
}
