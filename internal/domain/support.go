package domain

import (
	"time"

	"github.com/google/uuid"
)

// SupportRequest links a user question forwarded into the support chat back to
// the conversation it came from, so staff replies can be routed home.
type SupportRequest struct {
	ID                uuid.UUID
	OriginalMessageID int64
	OriginalChatID    int64
	OriginalFromID    int64
	SupportMessageID  int64
	RepliedFromID     *int64
	RepliedMessageID  *int64
	Created           time.Time
	Replied           *time.Time
}
