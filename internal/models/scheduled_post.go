package models

import "time"

type ScheduledPost struct {
	ID             int64     `db:"id" json:"id"`
	AccountSlot    string    `db:"account_slot" json:"account_slot"`
	Text           string    `db:"text" json:"text"`
	SourceURL      string    `db:"source_url" json:"source_url"`
	DedupeKey      string    `db:"dedupe_key" json:"dedupe_key"`
	ThreadID       string    `db:"thread_id" json:"thread_id"`
	ThreadIndex    int       `db:"thread_index" json:"thread_index"`
	MediaRefs      []string  `db:"media_refs" json:"media_refs"`
	CommunityID    string    `db:"community_id" json:"community_id"`
	ReplyToID      string    `db:"reply_to_id" json:"reply_to_id"`
	ScheduledTime  time.Time `db:"scheduled_time" json:"scheduled_time"`
	Status         string    `db:"status" json:"status"` // scheduled, posted, failed, cancelled
	PlatformPostID string    `db:"platform_post_id" json:"platform_post_id"`
	ErrorMessage   string    `db:"error_message" json:"error_message"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusScheduled = "scheduled"
	PostStatusPosted    = "posted"
	PostStatusFailed    = "failed"
	PostStatusCancelled = "cancelled"
)
