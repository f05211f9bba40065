package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/lostfilm-notifier/app/caption"
	"github.com/lysyi3m/lostfilm-notifier/app/channel"
	"github.com/lysyi3m/lostfilm-notifier/app/database"
	"github.com/lysyi3m/lostfilm-notifier/app/release"
)

// EnrichReleasesTask re-reads the detail page of every incomplete release and
// edits the sent message when something new turned up.
type EnrichReleasesTask struct {
	Task
	releaseRepo database.ReleaseRepositoryInterface
	details     DetailSource
	notifier    channel.Notifier
}

func NewEnrichReleasesTask(releaseRepo database.ReleaseRepositoryInterface, details DetailSource, notifier channel.Notifier) *EnrichReleasesTask {
	return &EnrichReleasesTask{
		Task:        NewTask(TaskTypeEnrichReleases),
		releaseRepo: releaseRepo,
		details:     details,
		notifier:    notifier,
	}
}

func (t *EnrichReleasesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	releases, err := t.releaseRepo.GetIncomplete(ctx)
	if err != nil {
		return fmt.Errorf("failed to get incomplete releases: %w", err)
	}

	if len(releases) == 0 {
		slog.Debug("No releases need enrichment")
		return nil
	}

	updatedCount := 0
	unreachableCount := 0
	editFailures := 0

	for _, rel := range releases {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		details, err := t.details.Run(ctx, rel.SourceURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Debug("Detail page unavailable", "release", rel.Identity().String(), "url", rel.SourceURL, "error", err)
			unreachableCount++
			continue
		}

		updated, changes := release.Enrich(rel, details)
		if !changes.Any() {
			continue
		}

		editFailures += t.editMessage(ctx, updated, changes)

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := t.releaseRepo.UpdateEnrichment(ctx, &updated); err != nil {
			return fmt.Errorf("failed to store enrichment: %w", err)
		}

		slog.Debug("Release enriched",
			"release", updated.Identity().String(),
			"synopsis", changes.Synopsis,
			"title_localized", changes.TitleLocalized,
			"poster", changes.Poster)
		updatedCount++
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"duration", t.GetDuration(),
		"checked", len(releases),
		"updated", updatedCount,
		"unreachable", unreachableCount,
		"edit_failures", editFailures)

	return nil
}

// editMessage brings the sent message in line with the merged release and
// returns the number of failed edits. Replacing the photo clears the caption,
// so the caption is always edited last.
func (t *EnrichReleasesTask) editMessage(ctx context.Context, rel release.Release, changes release.Changes) int {
	failures := 0

	if changes.Poster {
		if err := t.notifier.EditPhoto(ctx, rel.MessageID, channel.PhotoURL(rel.PosterURL)); err != nil {
			slog.Warn("Failed to edit photo", "release", rel.Identity().String(), "message_id", rel.MessageID, "error", err)
			failures++
		}
	}

	if err := t.notifier.EditCaption(ctx, rel.MessageID, caption.Release(rel)); err != nil {
		slog.Warn("Failed to edit caption", "release", rel.Identity().String(), "message_id", rel.MessageID, "error", err)
		failures++
	}

	return failures
}
