package tasks

import (
	"context"

	"github.com/lysyi3m/lostfilm-notifier/app/feed"
	"github.com/lysyi3m/lostfilm-notifier/app/release"
	"github.com/lysyi3m/lostfilm-notifier/app/schedule"
)

// TaskSchedulerInterface runs the notification cycle periodically in serve mode.
type TaskSchedulerInterface interface {
	Start()
	Stop()
}

type FeedSource interface {
	Fetch(ctx context.Context, feedURL string) ([]feed.Entry, error)
}

type DetailSource interface {
	Run(ctx context.Context, pageURL string) (release.Details, error)
}

type ScheduleSource interface {
	Fetch(ctx context.Context, pageURL string) (*schedule.Page, error)
}

type CollageBuilder interface {
	Build(ctx context.Context, posters []string, blankURL string) ([]byte, error)
}
