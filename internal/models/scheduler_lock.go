package models

// SchedulerLock is the row backing the lease lock that serializes a named
// cycle across app instances. LeaseUntil is epoch seconds; 0 means released.
type SchedulerLock struct {
	LockKey    string `db:"lock_key" json:"lock_key"`
	OwnerID    string `db:"owner_id" json:"owner_id"`
	LeaseUntil int64  `db:"lease_until" json:"lease_until"`
}
