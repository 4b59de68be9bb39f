package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/postpilothq/postpilot/internal/models"
)

type ScheduledPostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error)
	ListBySlot(ctx context.Context, accountSlot string) ([]*models.ScheduledPost, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	GetThreadSibling(ctx context.Context, threadID string, threadIndex int) (*models.ScheduledPost, error)
	ExistsScheduledByDedupeKey(ctx context.Context, accountSlot, dedupeKey string) (bool, error)
	MarkPosted(ctx context.Context, id int64, platformPostID string) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
	MarkCancelled(ctx context.Context, id int64, errorMessage string) error
	Cancel(ctx context.Context, id int64) (bool, error)
	CountActivitySince(ctx context.Context, accountSlot string, since time.Time) (int, error)
	ListPostedSince(ctx context.Context, since time.Time) ([]*models.ScheduledPost, error)
	ListMissingDedupeKey(ctx context.Context, limit int) ([]*models.ScheduledPost, error)
	UpdateDedupeKey(ctx context.Context, id int64, dedupeKey string) error
}

type scheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

const scheduledPostColumns = `id, account_slot, text, source_url, dedupe_key, thread_id, thread_index, media_refs, community_id, reply_to_id, scheduled_time, status, platform_post_id, error_message, created_at, updated_at`

func scanScheduledPost(row interface{ Scan(...any) error }) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	err := row.Scan(&post.ID, &post.AccountSlot, &post.Text, &post.SourceURL, &post.DedupeKey,
		&post.ThreadID, &post.ThreadIndex, pq.Array(&post.MediaRefs), &post.CommunityID, &post.ReplyToID,
		&post.ScheduledTime, &post.Status, &post.PlatformPostID, &post.ErrorMessage,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *scheduledPostRepository) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) (int64, error) {
	query := `
		INSERT INTO scheduled_posts (account_slot, text, source_url, dedupe_key, thread_id, thread_index, media_refs, community_id, reply_to_id, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	var id int64
	var err error

	args := []any{post.AccountSlot, post.Text, post.SourceURL, post.DedupeKey, post.ThreadID,
		post.ThreadIndex, pq.Array(post.MediaRefs), post.CommunityID, post.ReplyToID,
		post.ScheduledTime, models.PostStatusScheduled}

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE id = $1`
	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *scheduledPostRepository) ListBySlot(ctx context.Context, accountSlot string) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE account_slot = $1 ORDER BY scheduled_time DESC`
	rows, err := r.db.QueryContext(ctx, query, accountSlot)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectScheduledPosts(rows)
}

// ListDue returns scheduled rows that are due, ordered so siblings of one
// thread come out in creation order within the same tick.
func (r *scheduledPostRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	query := `
		SELECT ` + scheduledPostColumns + `
		FROM scheduled_posts
		WHERE status = $1 AND scheduled_time <= $2
		ORDER BY scheduled_time, thread_id, thread_index, id
	`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectScheduledPosts(rows)
}

func (r *scheduledPostRepository) GetThreadSibling(ctx context.Context, threadID string, threadIndex int) (*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE thread_id = $1 AND thread_index = $2`
	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, threadID, threadIndex))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

// ExistsScheduledByDedupeKey checks uniqueness only among rows still in
// scheduled status; terminal rows do not block re-scheduling.
func (r *scheduledPostRepository) ExistsScheduledByDedupeKey(ctx context.Context, accountSlot, dedupeKey string) (bool, error) {
	query := `SELECT 1 FROM scheduled_posts WHERE account_slot = $1 AND dedupe_key = $2 AND status = $3`

	var result int
	err := r.db.QueryRowContext(ctx, query, accountSlot, dedupeKey, models.PostStatusScheduled).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *scheduledPostRepository) MarkPosted(ctx context.Context, id int64, platformPostID string) error {
	query := `UPDATE scheduled_posts SET status = $1, platform_post_id = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPosted, platformPostID, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	return r.setTerminal(ctx, id, models.PostStatusFailed, errorMessage)
}

func (r *scheduledPostRepository) MarkCancelled(ctx context.Context, id int64, errorMessage string) error {
	return r.setTerminal(ctx, id, models.PostStatusCancelled, errorMessage)
}

func (r *scheduledPostRepository) setTerminal(ctx context.Context, id int64, status, errorMessage string) error {
	query := `UPDATE scheduled_posts SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, status, errorMessage, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Cancel transitions a row to cancelled only while it is still scheduled.
func (r *scheduledPostRepository) Cancel(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE scheduled_posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, models.PostStatusCancelled, time.Now(), id, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

// CountActivitySince counts both executed posts and still-pending scheduled
// rows inside the trailing window, so queued work consumes quota too.
func (r *scheduledPostRepository) CountActivitySince(ctx context.Context, accountSlot string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM scheduled_posts
		WHERE account_slot = $1
		AND ((status = $2 AND updated_at >= $3) OR (status = $4 AND scheduled_time >= $3))
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, accountSlot, models.PostStatusPosted, since, models.PostStatusScheduled).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *scheduledPostRepository) ListPostedSince(ctx context.Context, since time.Time) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE status = $1 AND updated_at >= $2`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPosted, since)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectScheduledPosts(rows)
}

func (r *scheduledPostRepository) ListMissingDedupeKey(ctx context.Context, limit int) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE dedupe_key = '' ORDER BY id LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectScheduledPosts(rows)
}

func (r *scheduledPostRepository) UpdateDedupeKey(ctx context.Context, id int64, dedupeKey string) error {
	query := `UPDATE scheduled_posts SET dedupe_key = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, dedupeKey, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func collectScheduledPosts(rows *sql.Rows) ([]*models.ScheduledPost, error) {
	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
