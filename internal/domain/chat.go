package domain

import (
	"time"

	"github.com/google/uuid"
)

// Chat is one conversation with the bot and its persistent configuration.
// Created lazily on the first inbound event from an unseen chat id, mutated on
// every event, never deleted.
type Chat struct {
	ID             int64
	NumIterMax     int
	ImgHeightMax   int
	StyleCountMax  int
	RequestsPerDay int
	Language       string

	DefaultParameters Parameters

	// ActiveJobID points at the single JobRecord currently in
	// StepCollectingStyles or StepRunning, or is nil.
	ActiveJobID *uuid.UUID

	Created      time.Time
	LastActivity time.Time
}

// NewChat returns a chat with the per-chat limits and parameter defaults.
func NewChat(id int64) *Chat {
	now := time.Now().UTC()
	return &Chat{
		ID:                id,
		NumIterMax:        10,
		ImgHeightMax:      500,
		StyleCountMax:     3,
		RequestsPerDay:    5,
		DefaultParameters: DefaultParameters(),
		Created:           now,
		LastActivity:      now,
	}
}

// SetLanguage records the two-letter language code reported by the platform.
// Empty codes are ignored so an already-detected language sticks.
func (c *Chat) SetLanguage(code string) {
	if code == "" {
		return
	}
	if len(code) > 2 {
		code = code[:2]
	}
	c.Language = code
}
