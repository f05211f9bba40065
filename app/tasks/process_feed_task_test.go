package tasks

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/lostfilm-notifier/app/caption"
	"github.com/lysyi3m/lostfilm-notifier/app/channel"
	"github.com/lysyi3m/lostfilm-notifier/app/feed"
	"github.com/lysyi3m/lostfilm-notifier/app/release"
)

const pageBase = "https://www.lostfilm.tv/series/Show/season_1/episode_"

func feedEntry(title string, episode string, published time.Time) feed.Entry {
	return feed.Entry{
		Title:       title,
		Link:        "https://www.lostfilm.tv/mr/series/Show/season_1/episode_" + episode + "/",
		Summary:     `<img src="https://static.lostfilm.top/Images/1/Posters/image.jpg" alt="" />`,
		PublishedAt: published,
	}
}

func fullDetails(episode string) release.Details {
	number, _ := strconv.Atoi(episode)
	return release.Details{
		PosterURL: "https://static.lostfilm.top/Images/1/Posters/e_1_" + episode + ".jpg",
		Synopsis:  "Synopsis of episode " + episode,
		Title: &release.Fields{
			Kind:              release.KindEpisode,
			ShowName:          "ShowEN",
			ShowNameLocalized: "Show",
			SeasonNumber:      1,
			EpisodeNumber:     number,
			Title:             "Episode " + episode,
			TitleLocalized:    "Эпизод " + episode,
		},
	}
}

func TestProcessFeedTaskNewEntry(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	notifier := newFakeNotifier()
	details := newFakeDetails()
	details.pages[pageBase+"1/"] = fullDetails("1")

	published := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)
	entries := []feed.Entry{feedEntry("Show (ShowEN). Pilot. (S01E01)", "1", published)}

	if err := NewProcessFeedTask(entries, store.releases, details, notifier).Execute(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(details.fetched) != 1 || details.fetched[0] != pageBase+"1/" {
		t.Errorf("Expected the normalized page to be fetched, got %v", details.fetched)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(notifier.sent))
	}

	stored, err := store.releases.Find(ctx, release.EpisodeIdentity("ShowEN", 1, 1))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if stored == nil {
		t.Fatal("Expected release to be stored")
	}

	if stored.MessageID != 101 {
		t.Errorf("Expected message id 101, got %d", stored.MessageID)
	}
	if stored.Synopsis != "Synopsis of episode 1" || stored.TitleLocalized != "Эпизод 1" {
		t.Errorf("Expected detail page fields, got %+v", stored)
	}
	if stored.SourceURL != pageBase+"1/" {
		t.Errorf("Expected normalized source URL, got %q", stored.SourceURL)
	}
	if !stored.PublishedOn.Equal(release.DateOf(published)) {
		t.Errorf("Expected publish date %v, got %v", release.DateOf(published), stored.PublishedOn)
	}

	sent := notifier.sent[0]
	if sent.photo.URL != "https://static.lostfilm.top/Images/1/Posters/e_1_1.jpg" {
		t.Errorf("Expected canonical poster, got %q", sent.photo.URL)
	}
	if sent.caption != caption.Release(*stored) {
		t.Errorf("Expected caption of the stored release, got %q", sent.caption)
	}
	if !strings.Contains(sent.caption, "1 сезон, 1 эпизод:") || !strings.Contains(sent.caption, "||Synopsis of episode 1||") {
		t.Errorf("Unexpected caption %q", sent.caption)
	}
}

func TestProcessFeedTaskIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	notifier := newFakeNotifier()
	details := newFakeDetails()
	details.pages[pageBase+"1/"] = fullDetails("1")

	entries := []feed.Entry{feedEntry("Show (ShowEN). Pilot. (S01E01)", "1", time.Now())}

	for i := 0; i < 3; i++ {
		if err := NewProcessFeedTask(entries, store.releases, details, notifier).Execute(ctx); err != nil {
			t.Fatalf("Run %d: expected no error, got %v", i, err)
		}
	}

	if len(notifier.sent) != 1 {
		t.Errorf("Expected exactly 1 message over 3 runs, got %d", len(notifier.sent))
	}
	if len(details.fetched) != 1 {
		t.Errorf("Expected known releases to skip extraction, got %d fetches", len(details.fetched))
	}

	stats, _ := store.releases.GetStats(ctx)
	if stats.Episodes != 1 {
		t.Errorf("Expected 1 stored episode, got %d", stats.Episodes)
	}
}

func TestProcessFeedTaskSendsOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	notifier := newFakeNotifier()
	details := newFakeDetails()

	now := time.Now()
	var entries []feed.Entry
	for _, n := range []string{"3", "2", "1"} {
		details.pages[pageBase+n+"/"] = fullDetails(n)
		entries = append(entries, feedEntry("Show (ShowEN). Episode "+n+". (S01E0"+n+")", n, now))
	}

	if err := NewProcessFeedTask(entries, store.releases, details, notifier).Execute(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(notifier.sent) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(notifier.sent))
	}
	for i, expected := range []string{"e_1_1.jpg", "e_1_2.jpg", "e_1_3.jpg"} {
		if !strings.HasSuffix(notifier.sent[i].photo.URL, expected) {
			t.Errorf("Message %d: expected poster %s, got %s", i, expected, notifier.sent[i].photo.URL)
		}
	}
}

func TestProcessFeedTaskSendFailureRetriesNextRun(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	notifier := newFakeNotifier()
	details := newFakeDetails()
	details.pages[pageBase+"1/"] = fullDetails("1")
	details.pages[pageBase+"2/"] = fullDetails("2")

	notifier.sendErr = func(text string) error {
		if strings.Contains(text, "2 эпизод") {
			return channel.ErrChannelUnreachable
		}
		return nil
	}

	entries := []feed.Entry{
		feedEntry("Show (ShowEN). Second. (S01E02)", "2", time.Now()),
		feedEntry("Show (ShowEN). Pilot. (S01E01)", "1", time.Now()),
	}

	if err := NewProcessFeedTask(entries, store.releases, details, notifier).Execute(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if exists, _ := store.releases.Exists(ctx, release.EpisodeIdentity("ShowEN", 1, 2)); exists {
		t.Error("Expected unsent release to be left out of the store")
	}
	if exists, _ := store.releases.Exists(ctx, release.EpisodeIdentity("ShowEN", 1, 1)); !exists {
		t.Error("Expected sent release to be stored")
	}

	notifier.sendErr = nil
	if err := NewProcessFeedTask(entries, store.releases, details, notifier).Execute(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if exists, _ := store.releases.Exists(ctx, release.EpisodeIdentity("ShowEN", 1, 2)); !exists {
		t.Error("Expected release to be stored once the channel recovered")
	}
	if len(notifier.sent) != 2 {
		t.Errorf("Expected 2 messages in total, got %d", len(notifier.sent))
	}
}

func TestProcessFeedTaskStoreFailureKeepsBatchGoing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	releases := &flakyReleases{ReleaseRepository: store.releases}
	notifier := newFakeNotifier()
	details := newFakeDetails()
	details.pages[pageBase+"1/"] = fullDetails("1")
	details.pages[pageBase+"2/"] = fullDetails("2")

	entries := []feed.Entry{
		feedEntry("Show (ShowEN). Second. (S01E02)", "2", time.Now()),
		feedEntry("Show (ShowEN). Pilot. (S01E01)", "1", time.Now()),
	}

	if err := NewProcessFeedTask(entries, releases, details, notifier).Execute(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(notifier.sent) != 2 {
		t.Fatalf("Expected both releases to be sent, got %d", len(notifier.sent))
	}
	if exists, _ := store.releases.Exists(ctx, release.EpisodeIdentity("ShowEN", 1, 1)); exists {
		t.Error("Expected the release whose insert failed to be missing from the store")
	}
	stored, err := store.releases.Find(ctx, release.EpisodeIdentity("ShowEN", 1, 2))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if stored == nil || stored.MessageID != 102 {
		t.Errorf("Expected the later release to be stored with message id 102, got %+v", stored)
	}
}

func TestProcessFeedTaskSkipsUnparseableAndDuplicates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	notifier := newFakeNotifier()
	details := newFakeDetails()
	details.pages[pageBase+"1/"] = fullDetails("1")

	entries := []feed.Entry{
		feedEntry("Not a release title", "9", time.Now()),
		feedEntry("Show (ShowEN). Pilot. (S01E01)", "1", time.Now()),
		feedEntry("Show (ShowEN). Pilot repost. (S01E01)", "1", time.Now()),
	}

	if err := NewProcessFeedTask(entries, store.releases, details, notifier).Execute(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Errorf("Expected 1 message, got %d", len(notifier.sent))
	}
	if len(details.fetched) != 1 {
		t.Errorf("Expected 1 page fetch, got %d", len(details.fetched))
	}
}

func TestProcessFeedTaskFallbackPoster(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	notifier := newFakeNotifier()
	details := newFakeDetails()

	entries := []feed.Entry{feedEntry("Show (ShowEN). Pilot. (S01E01)", "1", time.Now())}

	if err := NewProcessFeedTask(entries, store.releases, details, notifier).Execute(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	stored, _ := store.releases.Find(ctx, release.EpisodeIdentity("ShowEN", 1, 1))
	if stored == nil {
		t.Fatal("Expected release to be stored with feed data")
	}
	if stored.PosterURL != "https://static.lostfilm.top/Images/1/Posters/poster.jpg" {
		t.Errorf("Expected fallback poster, got %q", stored.PosterURL)
	}
	if stored.Title != "Pilot" || stored.Synopsis != "" {
		t.Errorf("Expected feed title and no synopsis, got %+v", stored)
	}
	if stored.IsComplete() {
		t.Error("Expected release with fallback poster to be incomplete")
	}
}

func TestProcessFeedTaskDefersWithoutPoster(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	notifier := newFakeNotifier()
	details := newFakeDetails()

	entry := feedEntry("Show (ShowEN). Pilot. (S01E01)", "1", time.Now())
	entry.Summary = "no image here"

	if err := NewProcessFeedTask([]feed.Entry{entry}, store.releases, details, notifier).Execute(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(notifier.sent) != 0 {
		t.Errorf("Expected no message without a poster, got %d", len(notifier.sent))
	}
	if exists, _ := store.releases.Exists(ctx, release.EpisodeIdentity("ShowEN", 1, 1)); exists {
		t.Error("Expected deferred release to stay out of the store")
	}
}

func TestProcessFeedTaskSpecialEpisode(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	notifier := newFakeNotifier()
	details := newFakeDetails()

	entries := []feed.Entry{feedEntry("Show (ShowEN). Recap. (Спецэпизод 3)", "3", time.Now())}

	if err := NewProcessFeedTask(entries, store.releases, details, notifier).Execute(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	stored, _ := store.releases.Find(ctx, release.EpisodeIdentity("ShowEN", release.SpecialSeason, 3))
	if stored == nil {
		t.Fatal("Expected special episode to be stored under season 999")
	}
	if len(notifier.sent) != 1 || !strings.Contains(notifier.sent[0].caption, "Спецэпизод 3") {
		t.Errorf("Expected special episode caption, got %+v", notifier.sent)
	}
}

func TestProcessFeedTaskCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newTestStore(t)
	entries := []feed.Entry{feedEntry("Show (ShowEN). Pilot. (S01E01)", "1", time.Now())}

	err := NewProcessFeedTask(entries, store.releases, newFakeDetails(), newFakeNotifier()).Execute(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
