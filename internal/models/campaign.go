package models

import "time"

type Campaign struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Status    string    `db:"status" json:"status"` // active, paused, archived
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type CampaignTask struct {
	ID               int64             `db:"id" json:"id"`
	CampaignID       int64             `db:"campaign_id" json:"campaign_id"`
	TaskType         string            `db:"task_type" json:"task_type"` // post, reply, dm, like, research, approval
	Details          map[string]string `db:"details" json:"details"`
	Priority         int               `db:"priority" json:"priority"`
	DueAt            time.Time         `db:"due_at" json:"due_at"`
	Status           string            `db:"status" json:"status"`
	RequiresApproval bool              `db:"requires_approval" json:"requires_approval"`
	ApprovalID       int64             `db:"approval_id" json:"approval_id"`
	Output           string            `db:"output" json:"output"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
}

type CampaignApproval struct {
	ID           int64     `db:"id" json:"id"`
	CampaignID   int64     `db:"campaign_id" json:"campaign_id"`
	TaskID       int64     `db:"task_id" json:"task_id"`
	Status       string    `db:"status" json:"status"` // pending, approved, rejected
	RequestedBy  string    `db:"requested_by" json:"requested_by"`
	DecisionNote string    `db:"decision_note" json:"decision_note"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

const (
	CampaignStatusActive   = "active"
	CampaignStatusPaused   = "paused"
	CampaignStatusArchived = "archived"
)

const (
	TaskStatusPending         = "pending"
	TaskStatusInProgress      = "in_progress"
	TaskStatusWaitingApproval = "waiting_approval"
	TaskStatusDone            = "done"
	TaskStatusFailed          = "failed"
	TaskStatusSkipped         = "skipped"
)

const (
	TaskTypePost     = "post"
	TaskTypeReply    = "reply"
	TaskTypeDM       = "dm"
	TaskTypeLike     = "like"
	TaskTypeResearch = "research"
	TaskTypeApproval = "approval"
)

const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)
