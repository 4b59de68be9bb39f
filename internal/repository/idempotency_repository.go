package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
)

type IdempotencyRepository interface {
	Get(ctx context.Context, scope, key string) (*models.IdempotencyRecord, error)
	Create(ctx context.Context, record *models.IdempotencyRecord) error
	Delete(ctx context.Context, id int64) error
	DeleteExpired(ctx context.Context, now time.Time) error
}

type idempotencyRepository struct {
	db *sql.DB
}

func NewIdempotencyRepository(db *sql.DB) IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) Get(ctx context.Context, scope, key string) (*models.IdempotencyRecord, error) {
	query := `SELECT id, scope, key, status_code, response_body, expires_at, created_at FROM api_idempotency WHERE scope = $1 AND key = $2`
	row := r.db.QueryRowContext(ctx, query, scope, key)

	var rec models.IdempotencyRecord
	err := row.Scan(&rec.ID, &rec.Scope, &rec.Key, &rec.StatusCode, &rec.ResponseBody, &rec.ExpiresAt, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &rec, nil
}

func (r *idempotencyRepository) Create(ctx context.Context, record *models.IdempotencyRecord) error {
	query := `
		INSERT INTO api_idempotency (scope, key, status_code, response_body, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (scope, key) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, record.Scope, record.Key, record.StatusCode,
		record.ResponseBody, record.ExpiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *idempotencyRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM api_idempotency WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	query := `DELETE FROM api_idempotency WHERE expires_at <= $1`
	_, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
