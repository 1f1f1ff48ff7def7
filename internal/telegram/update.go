package telegram

import "errors"

// Limits applied to inbound images before they are accepted as job assets.
const (
	maxFileBytes = 10_000_000
	maxDimension = 3000
)

var (
	// ErrInvalidFormat marks a document that is not an image.
	ErrInvalidFormat = errors.New("telegram: not an image")
	// ErrTooBig marks an image exceeding the size or dimension limits.
	ErrTooBig = errors.New("telegram: image too big")
	// ErrNoFile marks a message without photo or document payload.
	ErrNoFile = errors.New("telegram: no file in message")
)

// Update is one inbound event from the Bot API webhook.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

type Message struct {
	MessageID        int64       `json:"message_id"`
	From             *User       `json:"from,omitempty"`
	Chat             ChatInfo    `json:"chat"`
	Text             string      `json:"text,omitempty"`
	Photo            []PhotoSize `json:"photo,omitempty"`
	Document         *Document   `json:"document,omitempty"`
	ReplyToMessage   *Message    `json:"reply_to_message,omitempty"`
	ForwardFrom      *User       `json:"forward_from,omitempty"`
	GroupChatCreated bool        `json:"group_chat_created,omitempty"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from,omitempty"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data"`
}

type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
}

type ChatInfo struct {
	ID   int64  `json:"id"`
	Type string `json:"type"` // "private", "group", "supergroup", "channel"
}

type PhotoSize struct {
	FileID   string `json:"file_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FileSize int64  `json:"file_size"`
}

type Document struct {
	FileID   string `json:"file_id"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// ChatID returns the chat the update belongs to, and whether one was found.
func (u *Update) ChatID() (int64, bool) {
	switch {
	case u.Message != nil:
		return u.Message.Chat.ID, true
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		return u.CallbackQuery.Message.Chat.ID, true
	}
	return 0, false
}

// Sender returns the user who produced the update.
func (u *Update) Sender() *User {
	switch {
	case u.Message != nil:
		return u.Message.From
	case u.CallbackQuery != nil:
		return u.CallbackQuery.From
	}
	return nil
}

// HasFile reports whether the message carries a photo or document payload.
func (m *Message) HasFile() bool {
	return len(m.Photo) > 0 || m.Document != nil
}

// FileRef is a validated reference to an inbound image.
type FileRef struct {
	FileID string
	// Compress is true for photos (Telegram re-encodes them) and false for
	// documents, which arrive byte-exact.
	Compress bool
}

// ImageFile validates the message's photo or document against the size limits
// and returns the transferable file reference. Photos come as a resolution
// ladder; the last entry is the largest.
func (m *Message) ImageFile() (FileRef, error) {
	if len(m.Photo) > 0 {
		photo := m.Photo[len(m.Photo)-1]
		if photo.FileSize > maxFileBytes || photo.Width > maxDimension || photo.Height > maxDimension {
			return FileRef{}, ErrTooBig
		}
		return FileRef{FileID: photo.FileID, Compress: true}, nil
	}
	if m.Document != nil {
		if !isImageMime(m.Document.MimeType) {
			return FileRef{}, ErrInvalidFormat
		}
		if m.Document.FileSize > maxFileBytes {
			return FileRef{}, ErrTooBig
		}
		return FileRef{FileID: m.Document.FileID, Compress: false}, nil
	}
	return FileRef{}, ErrNoFile
}

func isImageMime(mime string) bool {
	return len(mime) >= 6 && mime[:6] == "image/"
}
