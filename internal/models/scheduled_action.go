package models

import "time"

type ScheduledAction struct {
	ID            int64             `db:"id" json:"id"`
	AccountSlot   string            `db:"account_slot" json:"account_slot"`
	ActionType    string            `db:"action_type" json:"action_type"` // reply, dm, like, repost
	TargetID      string            `db:"target_id" json:"target_id"`
	Payload       map[string]string `db:"payload" json:"payload"`
	ScheduledTime time.Time         `db:"scheduled_time" json:"scheduled_time"`
	Status        string            `db:"status" json:"status"` // scheduled, completed, failed, cancelled
	Result        string            `db:"result" json:"result"`
	ErrorMessage  string            `db:"error_message" json:"error_message"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

const (
	ActionStatusScheduled = "scheduled"
	ActionStatusCompleted = "completed"
	ActionStatusFailed    = "failed"
	ActionStatusCancelled = "cancelled"
)

const (
	ActionTypeReply  = "reply"
	ActionTypeDM     = "dm"
	ActionTypeLike   = "like"
	ActionTypeRepost = "repost"
)
