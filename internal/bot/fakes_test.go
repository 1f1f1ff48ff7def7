package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stylebot/internal/domain"
	"stylebot/internal/i18n"
	"stylebot/internal/telegram"
	"stylebot/internal/trainer"
)

// In-memory repositories. Get and Save copy records so in-memory mutations by
// the code under test are only visible after an explicit persist, matching the
// database-backed implementations.

type memChatRepo struct {
	chats map[int64]*domain.Chat
}

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{chats: map[int64]*domain.Chat{}}
}

func cloneChat(c *domain.Chat) *domain.Chat {
	cp := *c
	if c.ActiveJobID != nil {
		id := *c.ActiveJobID
		cp.ActiveJobID = &id
	}
	return &cp
}

func (m *memChatRepo) Get(_ context.Context, id int64) (*domain.Chat, error) {
	c, ok := m.chats[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneChat(c), nil
}

func (m *memChatRepo) Save(_ context.Context, chat *domain.Chat) error {
	m.chats[chat.ID] = cloneChat(chat)
	return nil
}

type memJobRepo struct {
	jobs map[uuid.UUID]*domain.JobRecord
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: map[uuid.UUID]*domain.JobRecord{}}
}

func cloneJob(j *domain.JobRecord) *domain.JobRecord {
	cp := *j
	cp.StyleAssets = append([]string(nil), j.StyleAssets...)
	if j.ProgressMessageID != nil {
		v := *j.ProgressMessageID
		cp.ProgressMessageID = &v
	}
	if j.Started != nil {
		v := *j.Started
		cp.Started = &v
	}
	if j.Completed != nil {
		v := *j.Completed
		cp.Completed = &v
	}
	if j.ConsumedUnits != nil {
		v := *j.ConsumedUnits
		cp.ConsumedUnits = &v
	}
	return &cp
}

func (m *memJobRepo) Create(_ context.Context, rec *domain.JobRecord) error {
	m.jobs[rec.ID] = cloneJob(rec)
	return nil
}

func (m *memJobRepo) Update(_ context.Context, rec *domain.JobRecord) error {
	stored, ok := m.jobs[rec.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Step != rec.Step && !stored.Step.CanTransition(rec.Step) {
		return domain.ErrInvalidTransition
	}
	m.jobs[rec.ID] = cloneJob(rec)
	return nil
}

func (m *memJobRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.JobRecord, error) {
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneJob(j), nil
}

func (m *memJobRepo) GetByChatAndName(_ context.Context, chatID int64, jobName string) (*domain.JobRecord, error) {
	for _, j := range m.jobs {
		if j.ChatID == chatID && j.JobName == jobName {
			return cloneJob(j), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memJobRepo) CountStartedSince(_ context.Context, chatID int64, since time.Time) (int, error) {
	count := 0
	for _, j := range m.jobs {
		if j.ChatID == chatID && j.Started != nil && !j.Started.Before(since) {
			count++
		}
	}
	return count, nil
}

type memSupportRepo struct {
	requests map[uuid.UUID]*domain.SupportRequest
}

func newMemSupportRepo() *memSupportRepo {
	return &memSupportRepo{requests: map[uuid.UUID]*domain.SupportRequest{}}
}

func (m *memSupportRepo) Create(_ context.Context, req *domain.SupportRequest) error {
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *memSupportRepo) GetBySupportMessageID(_ context.Context, messageID int64) (*domain.SupportRequest, error) {
	for _, req := range m.requests {
		if req.SupportMessageID == messageID {
			cp := *req
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memSupportRepo) Update(_ context.Context, req *domain.SupportRequest) error {
	if _, ok := m.requests[req.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

// memAtomic serializes nothing; tests are single-goroutine.
type memAtomic struct {
	repos domain.Repos
}

func (m *memAtomic) WithChat(ctx context.Context, _ int64, fn func(context.Context, domain.Repos) error) error {
	return fn(ctx, m.repos)
}

type sentMessage struct {
	ChatID  int64
	Text    string
	ReplyTo int64
	KB      telegram.Keyboard
}

type editedMessage struct {
	ChatID    int64
	MessageID int64
	Text      string
	KB        telegram.Keyboard
}

type fakeMessenger struct {
	sent        []sentMessage
	edited      []editedMessage
	photoChats  []int64
	forwards    []int64
	files       map[string][]byte
	nextMsgID   int64
	photoFileID string
	failSend    bool
	failPhoto   bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{files: map[string][]byte{}, photoFileID: "result-file-id"}
}

func (f *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string) (int64, error) {
	if f.failSend {
		return 0, errors.New("send failed")
	}
	f.nextMsgID++
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return f.nextMsgID, nil
}

func (f *fakeMessenger) SendMessageWithKeyboard(_ context.Context, chatID int64, text string, kb telegram.Keyboard) (int64, error) {
	f.nextMsgID++
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, KB: kb})
	return f.nextMsgID, nil
}

func (f *fakeMessenger) ReplyMessage(_ context.Context, chatID int64, text string, replyTo int64) (int64, error) {
	f.nextMsgID++
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, ReplyTo: replyTo})
	return f.nextMsgID, nil
}

func (f *fakeMessenger) EditMessage(_ context.Context, chatID, messageID int64, text string, kb telegram.Keyboard) error {
	f.edited = append(f.edited, editedMessage{ChatID: chatID, MessageID: messageID, Text: text, KB: kb})
	return nil
}

func (f *fakeMessenger) SendPhoto(_ context.Context, chatID int64, _ string, _ []byte) (string, error) {
	if f.failPhoto {
		return "", errors.New("send photo failed")
	}
	f.photoChats = append(f.photoChats, chatID)
	return f.photoFileID, nil
}

func (f *fakeMessenger) SendTyping(context.Context, int64) error { return nil }

func (f *fakeMessenger) ForwardMessage(_ context.Context, _, _ int64, messageID int64) (int64, error) {
	f.forwards = append(f.forwards, messageID)
	f.nextMsgID++
	return f.nextMsgID, nil
}

func (f *fakeMessenger) AnswerCallbackQuery(context.Context, string) error { return nil }

func (f *fakeMessenger) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	data, ok := f.files[fileID]
	if !ok {
		return nil, fmt.Errorf("no such file %q", fileID)
	}
	return data, nil
}

func (f *fakeMessenger) lastText() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Text
}

type fakeTrainer struct {
	existing   []string
	created    []trainer.JobSpec
	units      *float64
	failCreate bool
}

func (f *fakeTrainer) ListJobs(_ context.Context, prefix string) ([]string, error) {
	var out []string
	for _, name := range f.existing {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out, nil
}

func (f *fakeTrainer) CreateJob(_ context.Context, spec trainer.JobSpec) error {
	if f.failCreate {
		return errors.New("trainer unavailable")
	}
	f.created = append(f.created, spec)
	return nil
}

func (f *fakeTrainer) ConsumedUnits(context.Context, string) *float64 {
	return f.units
}

type fakeStore struct {
	blobs map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: map[string][]byte{}}
}

func (f *fakeStore) Write(_ context.Context, key string, data []byte) (string, error) {
	f.blobs[key] = append([]byte(nil), data...)
	return key, nil
}

func (f *fakeStore) Read(_ context.Context, key string) ([]byte, error) {
	data, ok := f.blobs[key]
	if !ok {
		return nil, fmt.Errorf("no such blob %q", key)
	}
	return data, nil
}

// testBot wires a Processor and Reconciler over the in-memory fakes.
type testBot struct {
	processor  *Processor
	reconciler *Reconciler
	chats      *memChatRepo
	jobs       *memJobRepo
	support    *memSupportRepo
	msgr       *fakeMessenger
	trainer    *fakeTrainer
	store      *fakeStore
	loc        *i18n.Localizer
}

const testSupportChatID int64 = -100

func newTestBot(t *testing.T) *testBot {
	t.Helper()
	loc, err := i18n.Load()
	if err != nil {
		t.Fatalf("load i18n: %v", err)
	}

	chats := newMemChatRepo()
	jobs := newMemJobRepo()
	support := newMemSupportRepo()
	atomic := &memAtomic{repos: domain.Repos{Chats: chats, Jobs: jobs, Support: support}}

	msgr := newFakeMessenger()
	tr := &fakeTrainer{}
	store := newFakeStore()
	logger := zerolog.Nop()

	settings := NewSettingsEditor(msgr, loc)
	launcher := NewLauncher(tr, msgr, store, "http://bot.example/callback/secret", logger)
	processor := NewProcessor(testSupportChatID, "stylebot", atomic, msgr, settings, launcher, loc, logger)
	reconciler := NewReconciler(atomic, msgr, tr, store, loc, logger)

	return &testBot{
		processor:  processor,
		reconciler: reconciler,
		chats:      chats,
		jobs:       jobs,
		support:    support,
		msgr:       msgr,
		trainer:    tr,
		store:      store,
		loc:        loc,
	}
}

func privateMessage(chatID int64, text string) *telegram.Update {
	return &telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			MessageID: 10,
			From:      &telegram.User{ID: chatID, FirstName: "Ada", LanguageCode: "en"},
			Chat:      telegram.ChatInfo{ID: chatID, Type: "private"},
			Text:      text,
		},
	}
}

func callbackQuery(chatID int64, data string, messageID int64) *telegram.Update {
	return &telegram.Update{
		UpdateID: 2,
		CallbackQuery: &telegram.CallbackQuery{
			ID:      "cb-1",
			From:    &telegram.User{ID: chatID, FirstName: "Ada", LanguageCode: "en"},
			Message: &telegram.Message{MessageID: messageID, Chat: telegram.ChatInfo{ID: chatID, Type: "private"}},
			Data:    data,
		},
	}
}

func photoMessage(chatID int64, fileID string) *telegram.Update {
	u := privateMessage(chatID, "")
	u.Message.Photo = []telegram.PhotoSize{
		{FileID: fileID + "-small", Width: 90, Height: 90, FileSize: 2000},
		{FileID: fileID, Width: 800, Height: 600, FileSize: 120_000},
	}
	return u
}
