package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/postpilothq/postpilot/internal/agent"
)

func (q *Queue) HandleExecuteTask(ctx context.Context, task *asynq.Task) error {
	var payload ExecuteTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	result, err := q.executor.ExecuteTask(ctx, payload.TaskID, agent.ExecuteOptions{
		DryRun: payload.DryRun,
		Actor:  payload.Actor,
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	slog.Info("task executed", "task_id", result.TaskID, "status", result.Status)
	return nil
}

func (q *Queue) HandleExecuteCampaign(ctx context.Context, task *asynq.Task) error {
	var payload ExecuteCampaignPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	summary, err := q.executor.ExecuteCampaign(ctx, payload.CampaignID, agent.CampaignOptions{
		MaxTasks:  payload.MaxTasks,
		OnlyTypes: payload.OnlyTypes,
		Until:     payload.Until,
		DryRun:    payload.DryRun,
		Actor:     payload.Actor,
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	slog.Info("campaign executed",
		"campaign_id", payload.CampaignID,
		"run_id", summary.RunID,
		"attempted", summary.Attempted,
		"completed", summary.Completed,
		"failed", summary.Failed)
	return nil
}
