package models

import "time"

type SocialAccount struct {
	ID             int64     `db:"id" json:"id"`
	AccountSlot    string    `db:"account_slot" json:"account_slot"`
	AccountName    string    `db:"account_name" json:"account_name"`
	PlatformUserID string    `db:"platform_user_id" json:"platform_user_id"`
	AccessToken    string    `db:"access_token" json:"-"`
	AccessSecret   string    `db:"access_secret" json:"-"`
	AccountStatus  string    `db:"account_status" json:"account_status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

const (
	AccountStatusConnected    = "connected"
	AccountStatusDisconnected = "disconnected"
)
