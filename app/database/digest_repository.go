package database

import (
	"context"
	"fmt"
	"time"
)

var _ DigestRepositoryInterface = (*DigestRepository)(nil)

// DigestRepository handles database operations for posted schedule digests
type DigestRepository struct {
	db *DB
}

func NewDigestRepository(db *DB) *DigestRepository {
	return &DigestRepository{db: db}
}

// HasDigestOn reports whether any schedule section was posted on date.
func (r *DigestRepository) HasDigestOn(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM digests WHERE digest_date = ?)
	`, date.Format(dateLayout)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check digest date: %w", err)
	}

	return exists, nil
}

func (r *DigestRepository) HasFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM digests WHERE fingerprint = ?)
	`, fingerprint).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check digest fingerprint: %w", err)
	}

	return exists, nil
}

func (r *DigestRepository) GetCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM digests`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get digest count: %w", err)
	}

	return count, nil
}

func (r *DigestRepository) Insert(ctx context.Context, d *Digest) error {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO digests (message_id, digest_date, section, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, d.MessageID, d.Date.Format(dateLayout), d.Section, d.Fingerprint, now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert digest: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get digest id: %w", err)
	}

	d.ID = id
	d.CreatedAt = now
	return nil
}

// DeleteOlderThan removes digests posted strictly before cutoff.
func (r *DigestRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM digests WHERE digest_date < ?`, cutoff.Format(dateLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old digests: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return deleted, nil
}
