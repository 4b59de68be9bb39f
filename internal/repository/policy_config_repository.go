package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
)

type PolicyConfigRepository interface {
	GetBySlot(ctx context.Context, accountSlot string) (*models.PolicyConfig, error)
	Upsert(ctx context.Context, cfg *models.PolicyConfig) error
}

type policyConfigRepository struct {
	db *sql.DB
}

func NewPolicyConfigRepository(db *sql.DB) PolicyConfigRepository {
	return &policyConfigRepository{db: db}
}

func (r *policyConfigRepository) GetBySlot(ctx context.Context, accountSlot string) (*models.PolicyConfig, error) {
	query := `
		SELECT id, account_slot, max_posts_per_day, max_replies_per_hour, max_dms_per_day, max_likes_per_hour,
			allowed_window_start, allowed_window_end, timezone, created_at, updated_at
		FROM policy_configs WHERE account_slot = $1
	`
	row := r.db.QueryRowContext(ctx, query, accountSlot)

	var cfg models.PolicyConfig
	err := row.Scan(&cfg.ID, &cfg.AccountSlot, &cfg.MaxPostsPerDay, &cfg.MaxRepliesPerHour,
		&cfg.MaxDmsPerDay, &cfg.MaxLikesPerHour, &cfg.AllowedWindowStart, &cfg.AllowedWindowEnd,
		&cfg.Timezone, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &cfg, nil
}

func (r *policyConfigRepository) Upsert(ctx context.Context, cfg *models.PolicyConfig) error {
	query := `
		INSERT INTO policy_configs (account_slot, max_posts_per_day, max_replies_per_hour, max_dms_per_day, max_likes_per_hour, allowed_window_start, allowed_window_end, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account_slot) DO UPDATE SET
			max_posts_per_day = EXCLUDED.max_posts_per_day,
			max_replies_per_hour = EXCLUDED.max_replies_per_hour,
			max_dms_per_day = EXCLUDED.max_dms_per_day,
			max_likes_per_hour = EXCLUDED.max_likes_per_hour,
			allowed_window_start = EXCLUDED.allowed_window_start,
			allowed_window_end = EXCLUDED.allowed_window_end,
			timezone = EXCLUDED.timezone,
			updated_at = $9
	`
	_, err := r.db.ExecContext(ctx, query, cfg.AccountSlot, cfg.MaxPostsPerDay, cfg.MaxRepliesPerHour,
		cfg.MaxDmsPerDay, cfg.MaxLikesPerHour, cfg.AllowedWindowStart, cfg.AllowedWindowEnd,
		cfg.Timezone, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
