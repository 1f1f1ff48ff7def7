package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stylebot/internal/domain"
	"stylebot/internal/i18n"
)

// Reconciler applies trainer callbacks to job records. Callbacks are external
// events that can arrive late, repeated, or for jobs the user has already
// abandoned, so every handler is idempotent and guards the chat's active
// pointer before touching it.
type Reconciler struct {
	atomic  domain.Atomic
	msgr    Messenger
	trainer Trainer
	store   BlobStore
	loc     *i18n.Localizer
	logger  zerolog.Logger
	now     func() time.Time
}

// NewReconciler constructs the callback reconciler.
func NewReconciler(atomic domain.Atomic, msgr Messenger, trainer Trainer, store BlobStore,
	loc *i18n.Localizer, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		atomic:  atomic,
		msgr:    msgr,
		trainer: trainer,
		store:   store,
		loc:     loc,
		logger:  logger,
		now:     time.Now,
	}
}

// OnProgress updates the chat's progress message with the reported iteration.
// Progress for a terminal or unknown job is dropped.
func (rc *Reconciler) OnProgress(ctx context.Context, chatID int64, jobName string, iteration int) error {
	return rc.atomic.WithChat(ctx, chatID, func(ctx context.Context, r domain.Repos) error {
		chat, rec, err := rc.resolve(ctx, r, chatID, jobName)
		if err != nil || rec == nil {
			return err
		}
		if rec.Step.Terminal() || rec.ProgressMessageID == nil {
			return nil
		}
		s := rc.loc.For(chat.Language)
		text := fmt.Sprintf(s.JobProgress, iteration, rec.Parameters.NumIter)
		if err := rc.msgr.EditMessage(ctx, chatID, *rec.ProgressMessageID, text, nil); err != nil {
			rc.logger.Warn().Err(err).Int64("chat_id", chatID).Str("job_name", jobName).
				Msg("edit progress message failed")
		}
		return nil
	})
}

// OnCompleted delivers the finished picture and finalizes the record. Delivery
// failure does not block finalization: the durable result path is kept on the
// record either way.
func (rc *Reconciler) OnCompleted(ctx context.Context, chatID int64, jobName, resultPath string) error {
	return rc.atomic.WithChat(ctx, chatID, func(ctx context.Context, r domain.Repos) error {
		chat, rec, err := rc.resolve(ctx, r, chatID, jobName)
		if err != nil || rec == nil {
			return err
		}
		if rec.Step.Terminal() {
			return nil
		}

		s := rc.loc.For(chat.Language)
		rec.ResultAsset = resultPath
		if data, err := rc.store.Read(ctx, resultPath); err != nil {
			rc.logger.Error().Err(err).Str("result_path", resultPath).Msg("read result failed")
			rc.notifyError(ctx, chatID, s.JobError)
		} else if fileID, err := rc.msgr.SendPhoto(ctx, chatID, s.JobCompleted, data); err != nil {
			rc.logger.Error().Err(err).Int64("chat_id", chatID).Str("job_name", jobName).
				Msg("deliver result failed")
			rc.notifyError(ctx, chatID, s.JobError)
		} else {
			rec.ResultAsset = fileID
		}

		return rc.finalize(ctx, r, chat, rec, domain.StepCompleted)
	})
}

// OnError tells the user the job failed and finalizes the record.
func (rc *Reconciler) OnError(ctx context.Context, chatID int64, jobName, message string) error {
	return rc.atomic.WithChat(ctx, chatID, func(ctx context.Context, r domain.Repos) error {
		chat, rec, err := rc.resolve(ctx, r, chatID, jobName)
		if err != nil || rec == nil {
			return err
		}
		if rec.Step.Terminal() {
			return nil
		}

		rc.logger.Error().Int64("chat_id", chatID).Str("job_name", jobName).Str("trainer_error", message).
			Msg("job failed")
		s := rc.loc.For(chat.Language)
		if _, err := rc.msgr.SendMessage(ctx, chatID, s.JobError); err != nil {
			rc.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("notify job error failed")
		}

		return rc.finalize(ctx, r, chat, rec, domain.StepError)
	})
}

func (rc *Reconciler) notifyError(ctx context.Context, chatID int64, text string) {
	if _, err := rc.msgr.SendMessage(ctx, chatID, text); err != nil {
		rc.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("notify delivery failure failed")
	}
}

// resolve loads the chat and the named record. A missing record is a stale
// callback: logged and reported as (nil, nil, nil) so callers drop it.
func (rc *Reconciler) resolve(ctx context.Context, r domain.Repos, chatID int64, jobName string) (*domain.Chat, *domain.JobRecord, error) {
	chat, err := r.Chats.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			rc.logger.Warn().Int64("chat_id", chatID).Str("job_name", jobName).
				Msg("callback for unknown chat")
			return nil, nil, nil
		}
		return nil, nil, err
	}
	rec, err := r.Jobs.GetByChatAndName(ctx, chatID, jobName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			rc.logger.Warn().Int64("chat_id", chatID).Str("job_name", jobName).
				Msg("callback for unknown job")
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return chat, rec, nil
}

// finalize moves the record to its terminal step, records completion time and
// consumed units, and releases the chat's active pointer when it still points
// at this record. A restart may have moved the pointer to a newer job; that
// pointer is left alone.
func (rc *Reconciler) finalize(ctx context.Context, r domain.Repos, chat *domain.Chat, rec *domain.JobRecord, to domain.Step) error {
	if err := rec.Transition(to); err != nil {
		return err
	}
	completed := rc.now().UTC()
	rec.Completed = &completed
	rec.ProgressMessageID = nil
	rec.ConsumedUnits = rc.trainer.ConsumedUnits(ctx, rec.JobName)
	if err := r.Jobs.Update(ctx, rec); err != nil {
		return err
	}

	if chat.ActiveJobID != nil && *chat.ActiveJobID == rec.ID {
		chat.ActiveJobID = nil
		if err := r.Chats.Save(ctx, chat); err != nil {
			return err
		}
	}
	return nil
}
