package models

import "time"

// AgentRun is the audit record for one executeTask/executeCampaign invocation.
// Append-only: after completion only terminal status and timestamps are set.
type AgentRun struct {
	ID         string    `db:"id" json:"id"`
	CampaignID int64     `db:"campaign_id" json:"campaign_id"`
	TaskID     int64     `db:"task_id" json:"task_id"`
	DryRun     bool      `db:"dry_run" json:"dry_run"`
	Status     string    `db:"status" json:"status"` // running, completed, failed, cancelled
	Input      string    `db:"input" json:"input"`
	Output     string    `db:"output" json:"output"`
	Error      string    `db:"error" json:"error"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

type AgentRunStep struct {
	ID         int64     `db:"id" json:"id"`
	RunID      string    `db:"run_id" json:"run_id"`
	StepType   string    `db:"step_type" json:"step_type"`
	Status     string    `db:"status" json:"status"` // running, completed, failed, skipped
	Input      string    `db:"input" json:"input"`
	Output     string    `db:"output" json:"output"`
	Error      string    `db:"error" json:"error"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

const (
	StepStatusRunning   = "running"
	StepStatusCompleted = "completed"
	StepStatusFailed    = "failed"
	StepStatusSkipped   = "skipped"
)
