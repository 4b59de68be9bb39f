package models

import "time"

type MediaAsset struct {
	ID        int64     `db:"id" json:"id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	FileURL   string    `db:"file_url" json:"file_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PostMetrics holds engagement numbers pulled periodically for posted content.
type PostMetrics struct {
	ID             int64     `db:"id" json:"id"`
	PostID         int64     `db:"post_id" json:"post_id"`
	PlatformPostID string    `db:"platform_post_id" json:"platform_post_id"`
	Likes          int       `db:"likes" json:"likes"`
	Reposts        int       `db:"reposts" json:"reposts"`
	Replies        int       `db:"replies" json:"replies"`
	CollectedAt    time.Time `db:"collected_at" json:"collected_at"`
}
