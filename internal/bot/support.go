package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"stylebot/internal/domain"
	"stylebot/internal/telegram"
)

// processSupportQuestion forwards a user's /support question into the support
// chat and records the mapping so a staff reply can be routed back.
func (p *Processor) processSupportQuestion(ctx context.Context, r domain.Repos, chat *domain.Chat, msg *telegram.Message) error {
	s := p.loc.For(chat.Language)

	cmd, question, _ := strings.Cut(msg.Text, " ")
	question = strings.TrimSpace(question)
	if question == "" {
		p.notify(ctx, chat, fmt.Sprintf(s.SupportHelp, cmd))
		return nil
	}

	forwardedID, err := p.msgr.ForwardMessage(ctx, chat.ID, p.supportChatID, msg.MessageID)
	if err != nil {
		return fmt.Errorf("forward support question: %w", err)
	}

	var fromID int64
	if msg.From != nil {
		fromID = msg.From.ID
	}
	req := &domain.SupportRequest{
		ID:                uuid.New(),
		OriginalMessageID: msg.MessageID,
		OriginalChatID:    chat.ID,
		OriginalFromID:    fromID,
		SupportMessageID:  forwardedID,
		Created:           p.now().UTC(),
	}
	if err := r.Support.Create(ctx, req); err != nil {
		return err
	}

	p.notify(ctx, chat, s.SupportQuestionAccepted)
	return nil
}

// processSupportReply routes a staff message written in the support chat back
// to the user it answers. Replies to a forwarded question are matched by the
// forwarded message id; anything else is dropped with a log line.
func (p *Processor) processSupportReply(ctx context.Context, r domain.Repos, msg *telegram.Message) error {
	if msg.Text == "" || msg.ReplyToMessage == nil {
		return nil
	}

	req, err := r.Support.GetBySupportMessageID(ctx, msg.ReplyToMessage.MessageID)
	if errors.Is(err, domain.ErrNotFound) {
		// Staff replied to something that was not a forwarded question, or the
		// question came from a user with hidden forwards. Fall back to the
		// forwarded sender when Telegram exposes it.
		if from := msg.ReplyToMessage.ForwardFrom; from != nil {
			if _, err := p.msgr.SendMessage(ctx, from.ID, msg.Text); err != nil {
				return fmt.Errorf("send support reply: %w", err)
			}
			return nil
		}
		p.logger.Warn().Int64("support_message_id", msg.ReplyToMessage.MessageID).
			Msg("support reply does not match a recorded question")
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := p.msgr.ReplyMessage(ctx, req.OriginalChatID, msg.Text, req.OriginalMessageID); err != nil {
		return fmt.Errorf("send support reply: %w", err)
	}

	repliedAt := p.now().UTC()
	req.Replied = &repliedAt
	req.RepliedMessageID = &msg.MessageID
	if msg.From != nil {
		req.RepliedFromID = &msg.From.ID
	}
	return r.Support.Update(ctx, req)
}
