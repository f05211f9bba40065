package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/lysyi3m/lostfilm-notifier/app/channel"
	"github.com/lysyi3m/lostfilm-notifier/app/database"
	"github.com/lysyi3m/lostfilm-notifier/app/feed"
	"github.com/lysyi3m/lostfilm-notifier/app/release"
	"github.com/lysyi3m/lostfilm-notifier/app/schedule"
)

type sentPhoto struct {
	photo   channel.Photo
	caption string
}

type fakeNotifier struct {
	mu          sync.Mutex
	nextID      int
	sent        []sentPhoto
	captions    map[int]string
	photos      map[int]channel.Photo
	replies     map[int]string
	editCaption int
	editPhoto   int
	unreachable bool

	sendErr func(caption string) error
	editErr error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		nextID:   100,
		captions: make(map[int]string),
		photos:   make(map[int]channel.Photo),
		replies:  make(map[int]string),
	}
}

func (n *fakeNotifier) SendPhoto(ctx context.Context, photo channel.Photo, caption string) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.sendErr != nil {
		if err := n.sendErr(caption); err != nil {
			return 0, err
		}
	}

	n.nextID++
	n.sent = append(n.sent, sentPhoto{photo: photo, caption: caption})
	n.captions[n.nextID] = caption
	n.photos[n.nextID] = photo
	return n.nextID, nil
}

func (n *fakeNotifier) EditCaption(ctx context.Context, messageID int, caption string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.editCaption++
	if n.editErr != nil {
		return n.editErr
	}
	n.captions[messageID] = caption
	return nil
}

func (n *fakeNotifier) EditPhoto(ctx context.Context, messageID int, photo channel.Photo) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.editPhoto++
	if n.editErr != nil {
		return n.editErr
	}
	n.photos[messageID] = photo
	return nil
}

func (n *fakeNotifier) Reply(ctx context.Context, messageID int, text string) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	n.replies[messageID] = text
	return n.nextID, nil
}

func (n *fakeNotifier) IsReachable(ctx context.Context) bool {
	return !n.unreachable
}

type fakeDetails struct {
	mu      sync.Mutex
	pages   map[string]release.Details
	fetched []string
}

func newFakeDetails() *fakeDetails {
	return &fakeDetails{pages: make(map[string]release.Details)}
}

func (d *fakeDetails) Run(ctx context.Context, pageURL string) (release.Details, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.fetched = append(d.fetched, pageURL)
	details, ok := d.pages[pageURL]
	if !ok {
		return release.Details{}, errors.New("detail page unreachable")
	}
	return details, nil
}

type fakeFeed struct {
	entries []feed.Entry
	err     error
}

func (f *fakeFeed) Fetch(ctx context.Context, feedURL string) ([]feed.Entry, error) {
	return f.entries, f.err
}

type fakeSchedule struct {
	page    *schedule.Page
	fetches int
}

func (s *fakeSchedule) Fetch(ctx context.Context, pageURL string) (*schedule.Page, error) {
	s.fetches++
	if s.page == nil {
		return nil, errors.New("schedule unreachable")
	}
	return s.page, nil
}

type fakeCollage struct{}

func (fakeCollage) Build(ctx context.Context, posters []string, blankURL string) ([]byte, error) {
	return []byte{0xff, 0xd8, 0xff, byte(len(posters))}, nil
}

type testStore struct {
	db       *database.DB
	releases *database.ReleaseRepository
	digests  *database.DigestRepository
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "entries.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return &testStore{
		db:       db,
		releases: database.NewReleaseRepository(db),
		digests:  database.NewDigestRepository(db),
	}
}

// flakyReleases fails the first Insert and delegates everything else.
type flakyReleases struct {
	*database.ReleaseRepository
	failed bool
}

func (r *flakyReleases) Insert(ctx context.Context, rel *release.Release) error {
	if !r.failed {
		r.failed = true
		return errors.New("disk I/O error")
	}
	return r.ReleaseRepository.Insert(ctx, rel)
}
