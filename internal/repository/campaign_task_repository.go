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

type CampaignTaskRepository interface {
	Create(ctx context.Context, task *models.CampaignTask) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.CampaignTask, error)
	ListEligible(ctx context.Context, campaignID int64, taskTypes []string, until time.Time, limit int) ([]*models.CampaignTask, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	SetApprovalID(ctx context.Context, id, approvalID int64) error
	SetTerminal(ctx context.Context, id int64, status, output string) error
}

type campaignTaskRepository struct {
	db *sql.DB
}

func NewCampaignTaskRepository(db *sql.DB) CampaignTaskRepository {
	return &campaignTaskRepository{db: db}
}

const campaignTaskColumns = `id, campaign_id, task_type, details, priority, due_at, status, requires_approval, approval_id, output, created_at, updated_at`

func scanCampaignTask(row interface{ Scan(...any) error }) (*models.CampaignTask, error) {
	var task models.CampaignTask
	var details []byte
	err := row.Scan(&task.ID, &task.CampaignID, &task.TaskType, &details, &task.Priority,
		&task.DueAt, &task.Status, &task.RequiresApproval, &task.ApprovalID, &task.Output,
		&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &task.Details); err != nil {
			return nil, err
		}
	}
	return &task, nil
}

func (r *campaignTaskRepository) Create(ctx context.Context, task *models.CampaignTask) (int64, error) {
	details, err := json.Marshal(task.Details)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	query := `
		INSERT INTO campaign_tasks (campaign_id, task_type, details, priority, due_at, status, requires_approval)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err = r.db.QueryRowContext(ctx, query, task.CampaignID, task.TaskType, details,
		task.Priority, task.DueAt, models.TaskStatusPending, task.RequiresApproval).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *campaignTaskRepository) GetByID(ctx context.Context, id int64) (*models.CampaignTask, error) {
	query := `SELECT ` + campaignTaskColumns + ` FROM campaign_tasks WHERE id = $1`
	task, err := scanCampaignTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return task, nil
}

// ListEligible returns pending or previously failed tasks, optionally
// filtered by type and due time, ordered by (priority, due_at).
func (r *campaignTaskRepository) ListEligible(ctx context.Context, campaignID int64, taskTypes []string, until time.Time, limit int) ([]*models.CampaignTask, error) {
	query := `
		SELECT ` + campaignTaskColumns + `
		FROM campaign_tasks
		WHERE campaign_id = $1 AND status = ANY($2)
		AND ($3 = '{}'::text[] OR task_type = ANY($3))
		AND due_at <= $4
		ORDER BY priority, due_at
		LIMIT $5
	`
	if taskTypes == nil {
		taskTypes = []string{}
	}
	rows, err := r.db.QueryContext(ctx, query, campaignID,
		pq.Array([]string{models.TaskStatusPending, models.TaskStatusFailed}),
		pq.Array(taskTypes), until, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.CampaignTask
	for rows.Next() {
		task, err := scanCampaignTask(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *campaignTaskRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE campaign_tasks SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *campaignTaskRepository) SetApprovalID(ctx context.Context, id, approvalID int64) error {
	query := `UPDATE campaign_tasks SET approval_id = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, approvalID, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *campaignTaskRepository) SetTerminal(ctx context.Context, id int64, status, output string) error {
	query := `UPDATE campaign_tasks SET status = $1, output = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, status, output, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
