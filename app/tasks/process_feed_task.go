package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/lysyi3m/lostfilm-notifier/app/caption"
	"github.com/lysyi3m/lostfilm-notifier/app/channel"
	"github.com/lysyi3m/lostfilm-notifier/app/database"
	"github.com/lysyi3m/lostfilm-notifier/app/detail"
	"github.com/lysyi3m/lostfilm-notifier/app/feed"
	"github.com/lysyi3m/lostfilm-notifier/app/release"
	"github.com/lysyi3m/lostfilm-notifier/app/title"
)

// ProcessFeedTask announces feed entries that are not in the store yet.
type ProcessFeedTask struct {
	Task
	entries     []feed.Entry
	releaseRepo database.ReleaseRepositoryInterface
	details     DetailSource
	notifier    channel.Notifier
}

func NewProcessFeedTask(entries []feed.Entry, releaseRepo database.ReleaseRepositoryInterface, details DetailSource, notifier channel.Notifier) *ProcessFeedTask {
	return &ProcessFeedTask{
		Task:        NewTask(TaskTypeProcessFeed),
		entries:     entries,
		releaseRepo: releaseRepo,
		details:     details,
		notifier:    notifier,
	}
}

func (t *ProcessFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	batch, stats, err := t.collect(ctx)
	if err != nil {
		return err
	}

	// The feed lists the newest entry first.
	slices.Reverse(batch)

	sentCount := 0
	failedCount := 0

	for _, rel := range batch {
		messageID, err := t.notifier.SendPhoto(ctx, channel.PhotoURL(rel.PosterURL), caption.Release(rel))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("Failed to send release, will retry next run", "release", rel.Identity().String(), "error", err)
			failedCount++
			continue
		}

		rel.MessageID = messageID
		if err := t.releaseRepo.Insert(ctx, &rel); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("Failed to store sent release", "release", rel.Identity().String(), "message_id", messageID, "error", err)
			failedCount++
			continue
		}
		sentCount++
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"duration", t.GetDuration(),
		"total", len(t.entries),
		"unparseable", stats.unparseable,
		"duplicates", stats.duplicates,
		"deferred", stats.deferred,
		"sent", sentCount,
		"failed", failedCount)

	return nil
}

type collectStats struct {
	unparseable int
	duplicates  int
	deferred    int
}

// collect turns unseen entries into releases in feed order. The store is
// consulted before any page is fetched.
func (t *ProcessFeedTask) collect(ctx context.Context) ([]release.Release, collectStats, error) {
	var stats collectStats
	var batch []release.Release
	seen := make(map[release.Identity]bool)

	for _, entry := range t.entries {
		select {
		case <-ctx.Done():
			return nil, stats, ctx.Err()
		default:
		}

		fields, err := title.FeedGrammar.Match(entry.Title)
		if err != nil {
			slog.Debug("Skipping entry", "title", entry.Title, "error", err)
			stats.unparseable++
			continue
		}

		id := fields.Identity()
		if seen[id] {
			stats.duplicates++
			continue
		}
		seen[id] = true

		exists, err := t.releaseRepo.Exists(ctx, id)
		if err != nil {
			return nil, stats, fmt.Errorf("failed to check release %s: %w", id, err)
		}
		if exists {
			stats.duplicates++
			continue
		}

		sourceURL := detail.NormalizeURL(entry.Link)

		details, err := t.details.Run(ctx, sourceURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, stats, ctx.Err()
			}
			slog.Warn("Detail page unavailable, using feed data", "release", id.String(), "url", sourceURL, "error", err)
		}

		rel := release.New(fields, details, sourceURL, entry.Poster(), entry.PublishedAt)
		if rel.PosterURL == "" {
			slog.Warn("No poster yet, deferring release", "release", id.String())
			stats.deferred++
			continue
		}

		batch = append(batch, rel)
	}

	return batch, stats, nil
}
