package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/postpilothq/postpilot/internal/models"
)

type ScheduledActionRepository interface {
	Create(ctx context.Context, action *models.ScheduledAction) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduledAction, error)
	ListBySlot(ctx context.Context, accountSlot string) ([]*models.ScheduledAction, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledAction, error)
	MarkCompleted(ctx context.Context, id int64, result string) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
	Cancel(ctx context.Context, id int64) (bool, error)
	CountActivitySince(ctx context.Context, accountSlot string, actionTypes []string, since time.Time, excludeID int64) (int, error)
}

type scheduledActionRepository struct {
	db *sql.DB
}

func NewScheduledActionRepository(db *sql.DB) ScheduledActionRepository {
	return &scheduledActionRepository{db: db}
}

const scheduledActionColumns = `id, account_slot, action_type, target_id, payload, scheduled_time, status, result, error_message, created_at, updated_at`

func scanScheduledAction(row interface{ Scan(...any) error }) (*models.ScheduledAction, error) {
	var action models.ScheduledAction
	var payload []byte
	err := row.Scan(&action.ID, &action.AccountSlot, &action.ActionType, &action.TargetID, &payload,
		&action.ScheduledTime, &action.Status, &action.Result, &action.ErrorMessage,
		&action.CreatedAt, &action.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &action.Payload); err != nil {
			return nil, err
		}
	}
	return &action, nil
}

func (r *scheduledActionRepository) Create(ctx context.Context, action *models.ScheduledAction) (int64, error) {
	payload, err := json.Marshal(action.Payload)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	query := `
		INSERT INTO scheduled_actions (account_slot, action_type, target_id, payload, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	err = r.db.QueryRowContext(ctx, query, action.AccountSlot, action.ActionType, action.TargetID,
		payload, action.ScheduledTime, models.ActionStatusScheduled).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *scheduledActionRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledAction, error) {
	query := `SELECT ` + scheduledActionColumns + ` FROM scheduled_actions WHERE id = $1`
	action, err := scanScheduledAction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return action, nil
}

func (r *scheduledActionRepository) ListBySlot(ctx context.Context, accountSlot string) ([]*models.ScheduledAction, error) {
	query := `SELECT ` + scheduledActionColumns + ` FROM scheduled_actions WHERE account_slot = $1 ORDER BY scheduled_time DESC`
	rows, err := r.db.QueryContext(ctx, query, accountSlot)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectScheduledActions(rows)
}

func (r *scheduledActionRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledAction, error) {
	query := `
		SELECT ` + scheduledActionColumns + `
		FROM scheduled_actions
		WHERE status = $1 AND scheduled_time <= $2
		ORDER BY scheduled_time, id
	`
	rows, err := r.db.QueryContext(ctx, query, models.ActionStatusScheduled, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectScheduledActions(rows)
}

func (r *scheduledActionRepository) MarkCompleted(ctx context.Context, id int64, result string) error {
	query := `UPDATE scheduled_actions SET status = $1, result = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, models.ActionStatusCompleted, result, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledActionRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `UPDATE scheduled_actions SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, models.ActionStatusFailed, errorMessage, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledActionRepository) Cancel(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE scheduled_actions SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, models.ActionStatusCancelled, time.Now(), id, models.ActionStatusScheduled)
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

// CountActivitySince counts completed actions and still-pending scheduled
// ones of the given types inside the trailing window. excludeID keeps the
// action currently under evaluation from consuming its own quota.
func (r *scheduledActionRepository) CountActivitySince(ctx context.Context, accountSlot string, actionTypes []string, since time.Time, excludeID int64) (int, error) {
	query := `
		SELECT COUNT(*) FROM scheduled_actions
		WHERE account_slot = $1 AND action_type = ANY($2)
		AND ((status = $3 AND updated_at >= $4) OR (status = $5 AND scheduled_time >= $4))
		AND ($6 = 0 OR id <> $6)
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, accountSlot, pq.Array(actionTypes),
		models.ActionStatusCompleted, since, models.ActionStatusScheduled, excludeID).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func collectScheduledActions(rows *sql.Rows) ([]*models.ScheduledAction, error) {
	var actions []*models.ScheduledAction
	for rows.Next() {
		action, err := scanScheduledAction(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}
