package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/lostfilm-notifier/app/caption"
	"github.com/lysyi3m/lostfilm-notifier/app/channel"
	"github.com/lysyi3m/lostfilm-notifier/app/database"
	"github.com/lysyi3m/lostfilm-notifier/app/schedule"
)

const collageName = "schedule.jpg"

// ScheduleDigestTask posts the release schedule once a day, one message per
// section.
type ScheduleDigestTask struct {
	Task
	scheduleURL string
	source      ScheduleSource
	collage     CollageBuilder
	digestRepo  database.DigestRepositoryInterface
	notifier    channel.Notifier
	today       time.Time
}

// NewScheduleDigestTask takes the local wall clock time; the schedule page
// names its sections relative to the site's day.
func NewScheduleDigestTask(scheduleURL string, source ScheduleSource, collage CollageBuilder, digestRepo database.DigestRepositoryInterface, notifier channel.Notifier, now time.Time) *ScheduleDigestTask {
	return &ScheduleDigestTask{
		Task:        NewTask(TaskTypeScheduleDigest),
		scheduleURL: scheduleURL,
		source:      source,
		collage:     collage,
		digestRepo:  digestRepo,
		notifier:    notifier,
		today:       time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	}
}

func (t *ScheduleDigestTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	posted, err := t.digestRepo.HasDigestOn(ctx, t.today)
	if err != nil {
		return fmt.Errorf("failed to check today's digest: %w", err)
	}
	if posted {
		slog.Debug("Schedule digest already posted today", "date", t.today.Format(time.DateOnly))
		return nil
	}

	page, err := t.source.Fetch(ctx, t.scheduleURL)
	if err != nil {
		return fmt.Errorf("failed to fetch schedule: %w", err)
	}

	sentCount := 0
	skippedCount := 0

	for _, section := range page.Sections {
		if len(section.Entries) == 0 {
			continue
		}

		sent, err := t.postSection(ctx, section, page.BlankURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, errStore) {
				return err
			}
			slog.Warn("Failed to post schedule section", "section", section.Name, "error", err)
			continue
		}
		if sent {
			sentCount++
		} else {
			skippedCount++
		}
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"duration", t.GetDuration(),
		"sections", len(page.Sections),
		"sent", sentCount,
		"skipped", skippedCount)

	return nil
}

var errStore = errors.New("digest store failure")

// postSection sends one section unless the same text was posted before.
// A caption the channel refuses is posted as a reply to the bare collage.
func (t *ScheduleDigestTask) postSection(ctx context.Context, section schedule.Section, blankURL string) (bool, error) {
	text := caption.Schedule(section)
	fingerprint := caption.Fingerprint(text)

	exists, err := t.digestRepo.HasFingerprint(ctx, fingerprint)
	if err != nil {
		return false, fmt.Errorf("%w: %w", errStore, err)
	}
	if exists {
		slog.Debug("Schedule section already posted", "section", section.Name)
		return false, nil
	}

	data, err := t.collage.Build(ctx, section.Posters(), blankURL)
	if err != nil {
		return false, fmt.Errorf("failed to build collage: %w", err)
	}
	photo := channel.PhotoBytes(collageName, data)

	messageID, err := t.notifier.SendPhoto(ctx, photo, text)
	if errors.Is(err, channel.ErrMessageRejected) {
		slog.Debug("Caption rejected, posting it as a reply", "section", section.Name, "error", err)

		messageID, err = t.notifier.SendPhoto(ctx, photo, "")
		if err != nil {
			return false, fmt.Errorf("failed to send collage: %w", err)
		}
		if _, err := t.notifier.Reply(ctx, messageID, text); err != nil {
			return false, fmt.Errorf("failed to reply with schedule: %w", err)
		}
	} else if err != nil {
		return false, fmt.Errorf("failed to send schedule: %w", err)
	}

	digest := &database.Digest{
		MessageID:   messageID,
		Date:        t.today,
		Section:     section.Name,
		Fingerprint: fingerprint,
	}
	if err := t.digestRepo.Insert(ctx, digest); err != nil {
		return false, fmt.Errorf("%w: %w", errStore, err)
	}

	return true, nil
}
