package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/lysyi3m/lostfilm-notifier/app/database"
	"github.com/lysyi3m/lostfilm-notifier/app/release"
)

func TestRetentionTaskBoundary(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	horizon := 90
	today := release.DateOf(now)

	expired := storedEpisode(t, store, func(r *release.Release) {
		r.EpisodeNumber = 1
		r.PublishedOn = today.AddDate(0, 0, -horizon-1)
	})
	kept := storedEpisode(t, store, func(r *release.Release) {
		r.EpisodeNumber = 2
		r.PublishedOn = today.AddDate(0, 0, -horizon+1)
	})

	oldDigest := &database.Digest{MessageID: 1, Date: today.AddDate(0, 0, -horizon-1), Section: "Сегодня", Fingerprint: "old"}
	newDigest := &database.Digest{MessageID: 2, Date: today, Section: "Сегодня", Fingerprint: "new"}
	for _, d := range []*database.Digest{oldDigest, newDigest} {
		if err := store.digests.Insert(ctx, d); err != nil {
			t.Fatalf("Failed to insert digest: %v", err)
		}
	}

	task := NewRetentionTask(store.releases, store.digests, horizon, now)
	if !task.Cutoff().Equal(today.AddDate(0, 0, -horizon)) {
		t.Errorf("Unexpected cutoff %v", task.Cutoff())
	}

	if err := task.Execute(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if exists, _ := store.releases.Exists(ctx, expired.Identity()); exists {
		t.Error("Expected release older than the horizon to be deleted")
	}
	if exists, _ := store.releases.Exists(ctx, kept.Identity()); !exists {
		t.Error("Expected release within the horizon to be kept")
	}

	if has, _ := store.digests.HasFingerprint(ctx, "old"); has {
		t.Error("Expected old digest to be deleted")
	}
	if has, _ := store.digests.HasFingerprint(ctx, "new"); !has {
		t.Error("Expected today's digest to be kept")
	}
}
