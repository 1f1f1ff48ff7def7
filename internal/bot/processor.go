package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"stylebot/internal/domain"
	"stylebot/internal/i18n"
	"stylebot/internal/telegram"
)

// Processor handles every inbound update: it lazily creates the chat record,
// then routes the event into the job state machine, the settings editor, or
// the support flow. All state mutations run inside a per-chat atomic section.
type Processor struct {
	supportChatID int64

	startRe         *regexp.Regexp
	taskCountRe     *regexp.Regexp
	supportRe       *regexp.Regexp
	settingsListRe  *regexp.Regexp
	settingsApplyRe *regexp.Regexp

	atomic   domain.Atomic
	msgr     Messenger
	settings *SettingsEditor
	launcher *Launcher
	loc      *i18n.Localizer
	logger   zerolog.Logger
	now      func() time.Time
}

// NewProcessor constructs the update processor. botUsername is the bot's @name,
// accepted as an optional command suffix the way group chats address bots.
func NewProcessor(supportChatID int64, botUsername string, atomic domain.Atomic, msgr Messenger,
	settings *SettingsEditor, launcher *Launcher, loc *i18n.Localizer, logger zerolog.Logger) *Processor {
	mention := regexp.QuoteMeta(botUsername)
	command := func(name string) *regexp.Regexp {
		return regexp.MustCompile(fmt.Sprintf(`^/%s(@%s)?$`, name, mention))
	}
	return &Processor{
		supportChatID:   supportChatID,
		startRe:         command("start"),
		taskCountRe:     command("task_count"),
		supportRe:       regexp.MustCompile(fmt.Sprintf(`^(/support(@%s)?)( (.+))?$`, mention)),
		settingsListRe:  command("settings"),
		settingsApplyRe: regexp.MustCompile(fmt.Sprintf(`^/settings(@%s)? (.+)$`, mention)),
		atomic:          atomic,
		msgr:            msgr,
		settings:        settings,
		launcher:        launcher,
		loc:             loc,
		logger:          logger,
		now:             time.Now,
	}
}

// Process consumes one inbound update. Errors returned here are internal
// failures (store, transport); every user mistake has already been answered
// with a localized message and is not an error.
func (p *Processor) Process(ctx context.Context, u *telegram.Update) error {
	chatID, ok := u.ChatID()
	if !ok {
		p.logger.Debug().Int64("update_id", u.UpdateID).Msg("update without chat, dropped")
		return nil
	}

	return p.atomic.WithChat(ctx, chatID, func(ctx context.Context, r domain.Repos) error {
		chat, err := r.Chats.Get(ctx, chatID)
		if errors.Is(err, domain.ErrNotFound) {
			chat = domain.NewChat(chatID)
		} else if err != nil {
			return err
		}
		if sender := u.Sender(); sender != nil {
			chat.SetLanguage(sender.LanguageCode)
		}
		chat.LastActivity = p.now().UTC()
		if err := r.Chats.Save(ctx, chat); err != nil {
			return err
		}

		switch {
		case chat.ID == p.supportChatID && u.Message != nil:
			return p.processSupportReply(ctx, r, u.Message)
		case u.Message != nil:
			return p.processMessage(ctx, r, chat, u.Message)
		case u.CallbackQuery != nil:
			err := p.processCallbackQuery(ctx, r, chat, u.CallbackQuery)
			if ackErr := p.msgr.AnswerCallbackQuery(ctx, u.CallbackQuery.ID); ackErr != nil {
				p.logger.Warn().Err(ackErr).Int64("chat_id", chat.ID).Msg("answer callback query failed")
			}
			return err
		}
		return nil
	})
}

func (p *Processor) processMessage(ctx context.Context, r domain.Repos, chat *domain.Chat, msg *telegram.Message) error {
	// Group chats get no private quota budget: every inbound message zeroes
	// the daily allowance before any quota check runs.
	if msg.Chat.Type != "private" && chat.RequestsPerDay != 0 {
		chat.RequestsPerDay = 0
		if err := r.Chats.Save(ctx, chat); err != nil {
			return err
		}
	}

	if msg.HasFile() {
		if err := p.processPhoto(ctx, r, chat, msg); err != nil {
			p.logger.Error().Err(err).Int64("chat_id", chat.ID).Msg("error processing a photo")
			p.notify(ctx, chat, p.loc.For(chat.Language).JobError)
		}
		return nil
	}

	s := p.loc.For(chat.Language)
	switch {
	case msg.GroupChatCreated:
		p.notify(ctx, chat, s.GroupHello)
	case msg.Text == "":
		// Stickers, voice notes and the like: nothing to do.
	case p.startRe.MatchString(msg.Text):
		return p.processRestart(ctx, r, chat, msg)
	case p.taskCountRe.MatchString(msg.Text):
		count, err := r.Jobs.CountStartedSince(ctx, chat.ID, p.now().Add(-quotaWindow))
		if err != nil {
			return err
		}
		p.notify(ctx, chat, strconv.Itoa(count))
	case p.settingsListRe.MatchString(msg.Text):
		return p.settings.SendAll(ctx, chat)
	case p.settingsApplyRe.MatchString(msg.Text):
		data := p.settingsApplyRe.FindStringSubmatch(msg.Text)[2]
		accepted, err := p.settings.Apply(ctx, r.Chats, chat, data, 0)
		if err != nil {
			return err
		}
		if !accepted {
			p.notify(ctx, chat, s.UnknownSettingsCommand)
		}
	case p.supportRe.MatchString(msg.Text):
		return p.processSupportQuestion(ctx, r, chat, msg)
	default:
		p.notify(ctx, chat, s.NoSuchCommand)
	}
	return nil
}

// processRestart implements the explicit /start command: reject while a job
// runs, otherwise clear the active pointer (orphaning a collecting record, if
// any) and greet the requester.
func (p *Processor) processRestart(ctx context.Context, r domain.Repos, chat *domain.Chat, msg *telegram.Message) error {
	s := p.loc.For(chat.Language)

	active, err := p.activeJob(ctx, r, chat)
	if err != nil {
		return err
	}
	if active != nil && active.Step == domain.StepRunning {
		p.notify(ctx, chat, s.AnotherJobInProgress)
		return nil
	}

	allowed, err := allowRestart(ctx, r.Jobs, chat, p.now())
	if err != nil {
		return err
	}
	if !allowed {
		p.notify(ctx, chat, fmt.Sprintf(s.TooManyQueries, chat.RequestsPerDay))
		return nil
	}

	chat.ActiveJobID = nil
	if err := r.Chats.Save(ctx, chat); err != nil {
		return err
	}
	if msg.From != nil && msg.From.IsBot {
		p.notify(ctx, chat, fmt.Sprintf(s.BotHello, msg.From.Username))
	} else {
		name := ""
		if msg.From != nil {
			name = msg.From.FirstName
		}
		p.notify(ctx, chat, fmt.Sprintf(s.UserHello, name))
	}
	return nil
}

// processPhoto is the asset-arrival edge of the state machine: it either
// creates a collecting record, appends a style image, or launches the job
// when the style set is complete.
func (p *Processor) processPhoto(ctx context.Context, r domain.Repos, chat *domain.Chat, msg *telegram.Message) error {
	s := p.loc.For(chat.Language)

	active, err := p.activeJob(ctx, r, chat)
	if err != nil {
		return err
	}
	if active != nil && active.Step == domain.StepRunning {
		p.notify(ctx, chat, s.AnotherJobInProgress)
		return nil
	}

	allowed, err := allowPhoto(ctx, r.Jobs, chat, p.now())
	if err != nil {
		return err
	}
	if !allowed {
		p.notify(ctx, chat, fmt.Sprintf(s.TooManyQueries, chat.RequestsPerDay))
		return nil
	}

	ref, err := msg.ImageFile()
	switch {
	case errors.Is(err, telegram.ErrInvalidFormat):
		p.notify(ctx, chat, s.InvalidFormatPrompt)
		return nil
	case errors.Is(err, telegram.ErrTooBig):
		p.notify(ctx, chat, s.TooBigFilePrompt)
		return nil
	case err != nil:
		return err
	}

	if active == nil {
		var requester int64
		if msg.From != nil {
			requester = msg.From.ID
		}
		rec := domain.NewJobRecord(chat, ref.FileID, ref.Compress, msg.MessageID, requester)
		if err := r.Jobs.Create(ctx, rec); err != nil {
			return err
		}
		chat.ActiveJobID = &rec.ID
		if err := r.Chats.Save(ctx, chat); err != nil {
			return err
		}
		p.notify(ctx, chat, s.SendSingleStylePrompt)
		return nil
	}

	// Collecting styles: append the asset.
	active.StyleAssets = append(active.StyleAssets, ref.FileID)

	if !active.StylesComplete() {
		if err := r.Jobs.Update(ctx, active); err != nil {
			return err
		}
		p.notify(ctx, chat, fmt.Sprintf(s.SendNextStylePrompt,
			len(active.StyleAssets)+1, active.Parameters.StyleCount))
		return nil
	}

	// Full style set: launch. On failure nothing is persisted, so the record
	// keeps its previous style list and the user can resubmit to retry.
	if err := p.msgr.SendTyping(ctx, chat.ID); err != nil {
		p.logger.Warn().Err(err).Int64("chat_id", chat.ID).Msg("send typing failed")
	}
	if err := p.launcher.Launch(ctx, active); err != nil {
		p.logger.Error().Err(err).Int64("chat_id", chat.ID).Msg("error creating job")
		p.notify(ctx, chat, s.JobError)
		return nil
	}
	if err := r.Jobs.Update(ctx, active); err != nil {
		return err
	}
	if msgID, err := p.msgr.SendMessage(ctx, chat.ID, s.JobStarted); err == nil {
		active.ProgressMessageID = &msgID
		if err := r.Jobs.Update(ctx, active); err != nil {
			return err
		}
	} else {
		p.logger.Warn().Err(err).Int64("chat_id", chat.ID).Msg("send job-started message failed")
	}
	return nil
}

func (p *Processor) processCallbackQuery(ctx context.Context, r domain.Repos, chat *domain.Chat, cq *telegram.CallbackQuery) error {
	var editMessageID int64
	if cq.Message != nil {
		editMessageID = cq.Message.MessageID
	}
	_, err := p.settings.Apply(ctx, r.Chats, chat, cq.Data, editMessageID)
	return err
}

// activeJob resolves the chat's active pointer. A dangling pointer is logged
// and treated as no active job.
func (p *Processor) activeJob(ctx context.Context, r domain.Repos, chat *domain.Chat) (*domain.JobRecord, error) {
	if chat.ActiveJobID == nil {
		return nil, nil
	}
	rec, err := r.Jobs.GetByID(ctx, *chat.ActiveJobID)
	if errors.Is(err, domain.ErrNotFound) {
		p.logger.Warn().Int64("chat_id", chat.ID).Stringer("job_id", *chat.ActiveJobID).
			Msg("active job pointer is dangling")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// notify sends a localized text to the chat, logging delivery failures.
func (p *Processor) notify(ctx context.Context, chat *domain.Chat, text string) {
	if _, err := p.msgr.SendMessage(ctx, chat.ID, text); err != nil {
		p.logger.Warn().Err(err).Int64("chat_id", chat.ID).Msg("notify failed")
	}
}

