package models

import "time"

// IdempotencyRecord stores the first response produced for a (scope, key)
// pair so repeated requests replay it instead of re-running side effects.
type IdempotencyRecord struct {
	ID           int64     `db:"id" json:"id"`
	Scope        string    `db:"scope" json:"scope"`
	Key          string    `db:"key" json:"key"`
	StatusCode   int       `db:"status_code" json:"status_code"`
	ResponseBody []byte    `db:"response_body" json:"-"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
