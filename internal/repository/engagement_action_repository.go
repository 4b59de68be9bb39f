package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/postpilothq/postpilot/internal/models"
)

type EngagementActionRepository interface {
	Create(ctx context.Context, action *models.EngagementAction) (int64, error)
	ListBySlot(ctx context.Context, accountSlot string, limit int) ([]*models.EngagementAction, error)
}

type engagementActionRepository struct {
	db *sql.DB
}

func NewEngagementActionRepository(db *sql.DB) EngagementActionRepository {
	return &engagementActionRepository{db: db}
}

func (r *engagementActionRepository) Create(ctx context.Context, action *models.EngagementAction) (int64, error) {
	query := `
		INSERT INTO engagement_actions (account_slot, action_type, target_id, result)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, action.AccountSlot, action.ActionType,
		action.TargetID, action.Result).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *engagementActionRepository) ListBySlot(ctx context.Context, accountSlot string, limit int) ([]*models.EngagementAction, error) {
	query := `SELECT id, account_slot, action_type, target_id, result, created_at FROM engagement_actions WHERE account_slot = $1 ORDER BY id DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, accountSlot, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var actions []*models.EngagementAction
	for rows.Next() {
		var action models.EngagementAction
		err := rows.Scan(&action.ID, &action.AccountSlot, &action.ActionType, &action.TargetID,
			&action.Result, &action.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		actions = append(actions, &action)
	}
	return actions, rows.Err()
}
