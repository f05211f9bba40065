package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/lostfilm-notifier/app/release"
)

const releaseColumns = `id, kind, show_name, show_name_localized, season_number, episode_number,
	title, title_localized, synopsis, poster_url, source_url, publish_date,
	message_id, created_at, updated_at`

// incompleteCondition mirrors release.Release.IsComplete.
const incompleteCondition = `(synopsis = '' OR title_localized = '' OR poster_url = ''
	OR (kind = 'episode' AND poster_url LIKE '%/` + release.FallbackPosterName + `'))`

var _ ReleaseRepositoryInterface = (*ReleaseRepository)(nil)

// ReleaseRepository handles database operations for episodes and movies
type ReleaseRepository struct {
	db *DB
}

func NewReleaseRepository(db *DB) *ReleaseRepository {
	return &ReleaseRepository{db: db}
}

// identityKey flattens an identity into the columns of the unique index.
// Movies keep zero season and episode numbers.
func identityKey(id release.Identity) (kind release.Kind, name string, season, episode int) {
	if id.Kind == release.KindMovie {
		return id.Kind, id.MovieName, 0, 0
	}
	return id.Kind, id.ShowName, id.SeasonNumber, id.EpisodeNumber
}

// Find returns the release with the given identity, or nil when there is none.
func (r *ReleaseRepository) Find(ctx context.Context, id release.Identity) (*release.Release, error) {
	kind, name, season, episode := identityKey(id)

	row := r.db.QueryRowContext(ctx, `
		SELECT `+releaseColumns+`
		FROM releases
		WHERE kind = ? AND identity_name = ? AND season_number = ? AND episode_number = ?
	`, kind, name, season, episode)

	rel, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find release %s: %w", id, err)
	}

	return rel, nil
}

func (r *ReleaseRepository) Exists(ctx context.Context, id release.Identity) (bool, error) {
	kind, name, season, episode := identityKey(id)

	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM releases
			WHERE kind = ? AND identity_name = ? AND season_number = ? AND episode_number = ?
		)
	`, kind, name, season, episode).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check release %s: %w", id, err)
	}

	return exists, nil
}

// GetIncomplete returns releases still missing a synopsis, a localized title
// or a canonical poster, oldest first.
func (r *ReleaseRepository) GetIncomplete(ctx context.Context) ([]release.Release, error) {
	return r.query(ctx, `
		SELECT `+releaseColumns+`
		FROM releases
		WHERE `+incompleteCondition+`
		ORDER BY publish_date, id
	`)
}

// GetRecent returns the newest releases first.
func (r *ReleaseRepository) GetRecent(ctx context.Context, limit int) ([]release.Release, error) {
	return r.query(ctx, `
		SELECT `+releaseColumns+`
		FROM releases
		ORDER BY publish_date DESC, id DESC
		LIMIT ?
	`, limit)
}

func (r *ReleaseRepository) GetStats(ctx context.Context) (ReleaseStats, error) {
	var stats ReleaseStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN kind = 'episode' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'movie' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN `+incompleteCondition+` THEN 1 ELSE 0 END), 0)
		FROM releases
	`).Scan(&stats.Episodes, &stats.Movies, &stats.Incomplete)
	if err != nil {
		return ReleaseStats{}, fmt.Errorf("failed to get release stats: %w", err)
	}

	return stats, nil
}

// Insert stores a newly announced release and fills in its ID and timestamps.
func (r *ReleaseRepository) Insert(ctx context.Context, rel *release.Release) error {
	kind, name, season, episode := identityKey(rel.Identity())
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO releases (
			kind, identity_name, show_name, show_name_localized, season_number, episode_number,
			title, title_localized, synopsis, poster_url, source_url, publish_date,
			message_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, kind, name, rel.ShowName, rel.ShowNameLocalized, season, episode,
		rel.Title, rel.TitleLocalized, rel.Synopsis, rel.PosterURL, rel.SourceURL,
		rel.PublishedOn.Format(dateLayout), rel.MessageID,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert release %s: %w", rel.Identity(), err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get release id: %w", err)
	}

	rel.ID = id
	rel.CreatedAt = now
	rel.UpdatedAt = now
	return nil
}

// UpdateEnrichment writes back the fields an enrichment pass may change.
// Identity columns are never touched.
func (r *ReleaseRepository) UpdateEnrichment(ctx context.Context, rel *release.Release) error {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE releases
		SET title_localized = ?, synopsis = ?, poster_url = ?, updated_at = ?
		WHERE id = ?
	`, rel.TitleLocalized, rel.Synopsis, rel.PosterURL, now.Format(time.RFC3339Nano), rel.ID)
	if err != nil {
		return fmt.Errorf("failed to update release %s: %w", rel.Identity(), err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("release %s not found", rel.Identity())
	}

	rel.UpdatedAt = now
	return nil
}

// DeleteOlderThan removes releases published strictly before cutoff.
func (r *ReleaseRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM releases WHERE publish_date < ?`, cutoff.Format(dateLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old releases: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return deleted, nil
}

func (r *ReleaseRepository) query(ctx context.Context, query string, args ...any) ([]release.Release, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}
	defer rows.Close()

	var releases []release.Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan release row: %w", err)
		}
		releases = append(releases, *rel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate releases: %w", err)
	}

	return releases, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRelease(s scanner) (*release.Release, error) {
	var rel release.Release
	var publishDate, createdAt, updatedAt string

	err := s.Scan(
		&rel.ID, &rel.Kind, &rel.ShowName, &rel.ShowNameLocalized, &rel.SeasonNumber, &rel.EpisodeNumber,
		&rel.Title, &rel.TitleLocalized, &rel.Synopsis, &rel.PosterURL, &rel.SourceURL, &publishDate,
		&rel.MessageID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rel.PublishedOn, err = time.Parse(dateLayout, publishDate); err != nil {
		return nil, fmt.Errorf("invalid publish date %q: %w", publishDate, err)
	}
	if rel.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	if rel.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at %q: %w", updatedAt, err)
	}

	return &rel, nil
}
