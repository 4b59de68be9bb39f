package queue

import (
	"time"

	"github.com/postpilothq/postpilot/internal/agent"
)

// Queue bridges asynq to the campaign executor so API handlers can hand
// off long-running campaign work instead of blocking the request.
type Queue struct {
	executor *agent.Executor
}

func NewQueue(executor *agent.Executor) *Queue {
	return &Queue{executor: executor}
}

const (
	TaskTypeExecuteTask     = "campaign:execute_task"
	TaskTypeExecuteCampaign = "campaign:execute"
)

type ExecuteTaskPayload struct {
	TaskID int64  `json:"task_id"`
	DryRun bool   `json:"dry_run"`
	Actor  string `json:"actor"`
}

type ExecuteCampaignPayload struct {
	CampaignID int64     `json:"campaign_id"`
	MaxTasks   int       `json:"max_tasks"`
	OnlyTypes  []string  `json:"only_types"`
	Until      time.Time `json:"until"`
	DryRun     bool      `json:"dry_run"`
	Actor      string    `json:"actor"`
}
