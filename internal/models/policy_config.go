package models

import "time"

type PolicyConfig struct {
	ID                 int64     `db:"id" json:"id"`
	AccountSlot        string    `db:"account_slot" json:"account_slot"`
	MaxPostsPerDay     int       `db:"max_posts_per_day" json:"max_posts_per_day"`
	MaxRepliesPerHour  int       `db:"max_replies_per_hour" json:"max_replies_per_hour"`
	MaxDmsPerDay       int       `db:"max_dms_per_day" json:"max_dms_per_day"`
	MaxLikesPerHour    int       `db:"max_likes_per_hour" json:"max_likes_per_hour"`
	AllowedWindowStart int       `db:"allowed_window_start" json:"allowed_window_start"`
	AllowedWindowEnd   int       `db:"allowed_window_end" json:"allowed_window_end"`
	Timezone           string    `db:"timezone" json:"timezone"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultPolicyConfig is applied when an account slot has no stored config.
func DefaultPolicyConfig(slot string) *PolicyConfig {
	return &PolicyConfig{
		AccountSlot:        slot,
		MaxPostsPerDay:     10,
		MaxRepliesPerHour:  20,
		MaxDmsPerDay:       50,
		MaxLikesPerHour:    30,
		AllowedWindowStart: 0,
		AllowedWindowEnd:   24,
		Timezone:           "UTC",
	}
}
