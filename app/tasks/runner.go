package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/lysyi3m/lostfilm-notifier/app/channel"
	"github.com/lysyi3m/lostfilm-notifier/app/database"
)

type Sources struct {
	Feed     FeedSource
	Details  DetailSource
	Schedule ScheduleSource
	Collage  CollageBuilder
}

type Options struct {
	FeedURL         string
	ScheduleURL     string
	LockPath        string
	RetentionDays   int
	ScheduleEnabled bool
	Location        *time.Location
	Now             func() time.Time
}

// RunStatus describes the latest cycle.
type RunStatus struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Skipped    string    `json:"skipped,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Runner executes one notification cycle: retention, enrichment, new
// releases and the schedule digest, in that order.
type Runner struct {
	sources     Sources
	releaseRepo database.ReleaseRepositoryInterface
	digestRepo  database.DigestRepositoryInterface
	notifier    channel.Notifier
	opts        Options
	lock        *flock.Flock

	mu     sync.RWMutex
	status RunStatus
}

func NewRunner(sources Sources, releaseRepo database.ReleaseRepositoryInterface, digestRepo database.DigestRepositoryInterface, notifier channel.Notifier, opts Options) *Runner {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		sources:     sources,
		releaseRepo: releaseRepo,
		digestRepo:  digestRepo,
		notifier:    notifier,
		opts:        opts,
		lock:        flock.New(opts.LockPath),
	}
}

// Run executes one cycle. It returns nil when the cycle was skipped because
// the store is locked or the feed or the channel is offline. Task failures
// are isolated from each other and joined into the returned error.
func (r *Runner) Run(ctx context.Context) error {
	status := RunStatus{StartedAt: r.opts.Now()}
	defer func() {
		status.FinishedAt = r.opts.Now()
		r.mu.Lock()
		r.status = status
		r.mu.Unlock()
	}()

	locked, err := r.lock.TryLock()
	if err != nil {
		status.Error = err.Error()
		return fmt.Errorf("failed to lock store: %w", err)
	}
	if !locked {
		slog.Warn("Store is locked by another run, skipping", "lock", r.opts.LockPath)
		status.Skipped = "locked"
		return nil
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			slog.Error("Failed to release store lock", "lock", r.opts.LockPath, "error", err)
		}
	}()

	entries, err := r.sources.Feed.Fetch(ctx, r.opts.FeedURL)
	if err != nil {
		slog.Warn("Feed is offline, skipping run", "url", r.opts.FeedURL, "error", err)
		status.Skipped = "feed offline"
		return nil
	}

	if !r.notifier.IsReachable(ctx) {
		slog.Warn("Channel is unreachable, skipping run")
		status.Skipped = "channel unreachable"
		return nil
	}

	now := r.opts.Now()
	tasks := []TaskInterface{
		NewRetentionTask(r.releaseRepo, r.digestRepo, r.opts.RetentionDays, now),
		NewEnrichReleasesTask(r.releaseRepo, r.sources.Details, r.notifier),
		NewProcessFeedTask(entries, r.releaseRepo, r.sources.Details, r.notifier),
	}
	if r.opts.ScheduleEnabled {
		tasks = append(tasks, NewScheduleDigestTask(r.opts.ScheduleURL, r.sources.Schedule, r.sources.Collage,
			r.digestRepo, r.notifier, now.In(r.opts.Location)))
	}

	var errs []error
	for _, task := range tasks {
		task.Start()

		if err := task.Execute(ctx); err != nil {
			if ctx.Err() != nil {
				status.Error = ctx.Err().Error()
				return ctx.Err()
			}
			slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", task.GetType(), err))
		}
	}

	err = errors.Join(errs...)
	if err != nil {
		status.Error = err.Error()
	}
	return err
}

func (r *Runner) Status() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}
