package queue

import (
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

func EnqueueExecuteTask(asynqClient *asynq.Client, payload ExecuteTaskPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeExecuteTask, taskPayload)

	_, err = asynqClient.Enqueue(task)
	if err != nil {
		return err
	}

	slog.Info("task execution enqueued", "task_id", payload.TaskID)
	return nil
}

func EnqueueExecuteCampaign(asynqClient *asynq.Client, payload ExecuteCampaignPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeExecuteCampaign, taskPayload)

	_, err = asynqClient.Enqueue(task)
	if err != nil {
		return err
	}

	slog.Info("campaign execution enqueued", "campaign_id", payload.CampaignID)
	return nil
}
