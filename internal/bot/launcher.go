package bot

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"stylebot/internal/domain"
	"stylebot/internal/trainer"
)

// Launcher sequences a job start: allocate a unique job name, relocate the
// collected assets into durable storage, and submit the trainer job. A failure
// anywhere leaves the record untouched so the whole launch can be retried.
type Launcher struct {
	trainer     Trainer
	msgr        Messenger
	store       BlobStore
	callbackURL string
	logger      zerolog.Logger
	now         func() time.Time
}

// NewLauncher constructs the launcher. callbackURL is the base address the
// trainer reports events to; chat id and job name are appended per job.
func NewLauncher(t Trainer, msgr Messenger, store BlobStore, callbackURL string, logger zerolog.Logger) *Launcher {
	return &Launcher{
		trainer:     t,
		msgr:        msgr,
		store:       store,
		callbackURL: callbackURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Launch starts the job for a record whose style set is complete. On success
// the record carries its job name, running step and start time; the caller is
// responsible for persisting it. On error the record is unchanged.
func (l *Launcher) Launch(ctx context.Context, rec *domain.JobRecord) error {
	prefix := fmt.Sprintf("job_%d_%s_", rec.ChatID, l.now().Format("2006_01_02"))
	existing, err := l.trainer.ListJobs(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list jobs for prefix %q: %w", prefix, err)
	}
	jobName := nextJobName(prefix, existing)
	folder := "jobs/" + jobName

	if err := l.relocateAssets(ctx, rec, folder); err != nil {
		return fmt.Errorf("relocate assets for %s: %w", jobName, err)
	}

	spec := trainer.JobSpec{
		JobID:  jobName,
		JobDir: folder,
		Args:   l.buildArgs(rec, jobName),
	}
	if err := l.trainer.CreateJob(ctx, spec); err != nil {
		l.logger.Error().Err(err).Str("job_name", jobName).Msg("trainer rejected job")
		return fmt.Errorf("submit job %s: %w", jobName, domain.ErrLaunchFailed)
	}

	rec.JobName = jobName
	if err := rec.Transition(domain.StepRunning); err != nil {
		return err
	}
	started := l.now().UTC()
	rec.Started = &started

	l.logger.Info().Str("job_name", jobName).Int64("chat_id", rec.ChatID).
		Msg("successfully started job")
	return nil
}

// relocateAssets copies the content image and every style image from the
// transport's transient storage into the job's durable folder.
func (l *Launcher) relocateAssets(ctx context.Context, rec *domain.JobRecord, folder string) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return l.relocate(gctx, rec.ContentAsset, folder+"/content.jpg")
	})
	for i, fileID := range rec.StyleAssets {
		key := fmt.Sprintf("%s/style%d.jpg", folder, i+1)
		fileID := fileID
		g.Go(func() error {
			return l.relocate(gctx, fileID, key)
		})
	}
	return g.Wait()
}

func (l *Launcher) relocate(ctx context.Context, fileID, key string) error {
	data, err := l.msgr.DownloadFile(ctx, fileID)
	if err != nil {
		return fmt.Errorf("download %s: %w", fileID, err)
	}
	if _, err := l.store.Write(ctx, key, data); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// buildArgs serializes the parameter snapshot as the trainer's argument list.
func (l *Launcher) buildArgs(rec *domain.JobRecord, jobName string) []string {
	callback := l.callbackURL + "?" + url.Values{
		"chat_id":  {strconv.FormatInt(rec.ChatID, 10)},
		"job_name": {jobName},
	}.Encode()

	p := rec.Parameters
	args := []string{
		"--content_image", "content.jpg",
		"--style_images",
	}
	for i := range rec.StyleAssets {
		args = append(args, fmt.Sprintf("style%d.jpg", i+1))
	}
	args = append(args,
		"--callback_url", callback,
		"--num_iter", strconv.Itoa(p.NumIter),
		"--image_size", strconv.Itoa(p.ImgHeight),
		"--content_weight", strconv.FormatFloat(p.ContentWeight, 'g', -1, 64),
		"--style_weight", strconv.FormatFloat(p.StyleWeight, 'g', -1, 64),
		"--style_scale", strconv.FormatFloat(p.StyleScale, 'g', -1, 64),
		"--preserve_color", strconv.FormatBool(p.PreserveColor),
	)
	return args
}

// nextJobName picks the first unused numeric suffix after the count of
// existing jobs with the prefix, stepping over collisions.
func nextJobName(prefix string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		taken[name] = struct{}{}
	}
	n := len(existing) + 1
	for {
		candidate := prefix + strconv.Itoa(n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
		n++
	}
}
