package database

import (
	"context"
	"time"

	"github.com/lysyi3m/lostfilm-notifier/app/release"
)

type ReleaseRepositoryInterface interface {
	Find(ctx context.Context, id release.Identity) (*release.Release, error)
	Exists(ctx context.Context, id release.Identity) (bool, error)
	GetIncomplete(ctx context.Context) ([]release.Release, error)
	GetRecent(ctx context.Context, limit int) ([]release.Release, error)
	GetStats(ctx context.Context) (ReleaseStats, error)

	Insert(ctx context.Context, r *release.Release) error
	UpdateEnrichment(ctx context.Context, r *release.Release) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type DigestRepositoryInterface interface {
	HasDigestOn(ctx context.Context, date time.Time) (bool, error)
	HasFingerprint(ctx context.Context, fingerprint string) (bool, error)
	GetCount(ctx context.Context) (int, error)

	Insert(ctx context.Context, d *Digest) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
