package models

import "time"

// EngagementAction is the append-only audit row written after every
// successfully executed engagement action.
type EngagementAction struct {
	ID          int64     `db:"id" json:"id"`
	AccountSlot string    `db:"account_slot" json:"account_slot"`
	ActionType  string    `db:"action_type" json:"action_type"`
	TargetID    string    `db:"target_id" json:"target_id"`
	Result      string    `db:"result" json:"result"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
