package bot

import (
	"context"

	"stylebot/internal/telegram"
	"stylebot/internal/trainer"
)

// Messenger is the outbound surface of the messaging transport. The concrete
// implementation lives in internal/telegram; tests plug in fakes.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int64, error)
	SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, kb telegram.Keyboard) (int64, error)
	ReplyMessage(ctx context.Context, chatID int64, text string, replyTo int64) (int64, error)
	EditMessage(ctx context.Context, chatID, messageID int64, text string, kb telegram.Keyboard) error
	SendPhoto(ctx context.Context, chatID int64, caption string, photo []byte) (string, error)
	SendTyping(ctx context.Context, chatID int64) error
	ForwardMessage(ctx context.Context, fromChatID, toChatID, messageID int64) (int64, error)
	AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// Trainer submits and inspects external training jobs.
type Trainer interface {
	ListJobs(ctx context.Context, prefix string) ([]string, error)
	CreateJob(ctx context.Context, spec trainer.JobSpec) error
	ConsumedUnits(ctx context.Context, jobName string) *float64
}

// BlobStore is the durable, job-addressable asset storage.
type BlobStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
}
