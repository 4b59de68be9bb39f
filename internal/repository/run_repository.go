package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
)

type RunRepository interface {
	CreateRun(ctx context.Context, run *models.AgentRun) error
	CompleteRun(ctx context.Context, id, status, output, errorMessage string) error
	CreateStep(ctx context.Context, step *models.AgentRunStep) (int64, error)
	CompleteStep(ctx context.Context, id int64, status, output, errorMessage string) error
	ListSteps(ctx context.Context, runID string) ([]*models.AgentRunStep, error)
}

type runRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) CreateRun(ctx context.Context, run *models.AgentRun) error {
	query := `
		INSERT INTO agent_runs (id, campaign_id, task_id, dry_run, status, input, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query, run.ID, run.CampaignID, run.TaskID, run.DryRun,
		models.RunStatusRunning, run.Input, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *runRepository) CompleteRun(ctx context.Context, id, status, output, errorMessage string) error {
	query := `UPDATE agent_runs SET status = $1, output = $2, error = $3, finished_at = $4 WHERE id = $5`
	_, err := r.db.ExecContext(ctx, query, status, output, errorMessage, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *runRepository) CreateStep(ctx context.Context, step *models.AgentRunStep) (int64, error) {
	query := `
		INSERT INTO agent_run_steps (run_id, step_type, status, input, started_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, step.RunID, step.StepType, models.StepStatusRunning,
		step.Input, time.Now()).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *runRepository) CompleteStep(ctx context.Context, id int64, status, output, errorMessage string) error {
	query := `UPDATE agent_run_steps SET status = $1, output = $2, error = $3, finished_at = $4 WHERE id = $5`
	_, err := r.db.ExecContext(ctx, query, status, output, errorMessage, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *runRepository) ListSteps(ctx context.Context, runID string) ([]*models.AgentRunStep, error) {
	query := `SELECT id, run_id, step_type, status, input, output, error, started_at, finished_at FROM agent_run_steps WHERE run_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var steps []*models.AgentRunStep
	for rows.Next() {
		var step models.AgentRunStep
		var finished sql.NullTime
		err := rows.Scan(&step.ID, &step.RunID, &step.StepType, &step.Status, &step.Input,
			&step.Output, &step.Error, &step.StartedAt, &finished)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if finished.Valid {
			step.FinishedAt = finished.Time
		}
		steps = append(steps, &step)
	}
	return steps, rows.Err()
}
