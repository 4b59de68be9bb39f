package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
)

type PostMetricsRepository interface {
	Create(ctx context.Context, metrics *models.PostMetrics) (int64, error)
}

type postMetricsRepository struct {
	db *sql.DB
}

func NewPostMetricsRepository(db *sql.DB) PostMetricsRepository {
	return &postMetricsRepository{db: db}
}

func (r *postMetricsRepository) Create(ctx context.Context, metrics *models.PostMetrics) (int64, error) {
	query := `
		INSERT INTO post_metrics (post_id, platform_post_id, likes, reposts, replies, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, metrics.PostID, metrics.PlatformPostID,
		metrics.Likes, metrics.Reposts, metrics.Replies, time.Now()).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}
