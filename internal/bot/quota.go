package bot

import (
	"context"
	"time"

	"stylebot/internal/domain"
)

// quotaWindow is the trailing interval the daily quota counts jobs over.
const quotaWindow = 24 * time.Hour

// allowPhoto is the quota gate on the photo-arrival path. It denies when the
// trailing-24h count has reached the limit (>= comparator). Together with
// allowRestart below this reproduces the two historical comparator sites,
// which intentionally differ by one; do not unify them.
func allowPhoto(ctx context.Context, jobs domain.JobRepository, chat *domain.Chat, now time.Time) (bool, error) {
	count, err := jobs.CountStartedSince(ctx, chat.ID, now.Add(-quotaWindow))
	if err != nil {
		return false, err
	}
	return count < chat.RequestsPerDay, nil
}

// allowRestart is the quota gate on the /start path. It denies only when the
// count strictly exceeds the limit (> comparator), so the Nth job where N
// equals the limit still greets the user.
func allowRestart(ctx context.Context, jobs domain.JobRepository, chat *domain.Chat, now time.Time) (bool, error) {
	count, err := jobs.CountStartedSince(ctx, chat.ID, now.Add(-quotaWindow))
	if err != nil {
		return false, err
	}
	return count <= chat.RequestsPerDay, nil
}
