package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/lostfilm-notifier/app/database"
	"github.com/lysyi3m/lostfilm-notifier/app/release"
)

// RetentionTask deletes releases and digests older than the horizon.
type RetentionTask struct {
	Task
	releaseRepo database.ReleaseRepositoryInterface
	digestRepo  database.DigestRepositoryInterface
	days        int
	today       time.Time
}

func NewRetentionTask(releaseRepo database.ReleaseRepositoryInterface, digestRepo database.DigestRepositoryInterface, days int, now time.Time) *RetentionTask {
	return &RetentionTask{
		Task:        NewTask(TaskTypeRetention),
		releaseRepo: releaseRepo,
		digestRepo:  digestRepo,
		days:        days,
		today:       release.DateOf(now),
	}
}

// Cutoff is the oldest date kept. Anything strictly before it is deleted.
func (t *RetentionTask) Cutoff() time.Time {
	return t.today.AddDate(0, 0, -t.days)
}

func (t *RetentionTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cutoff := t.Cutoff()

	releases, err := t.releaseRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old releases: %w", err)
	}

	digests, err := t.digestRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old digests: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"duration", t.GetDuration(),
		"cutoff", cutoff.Format(time.DateOnly),
		"releases", releases,
		"digests", digests)

	return nil
}
