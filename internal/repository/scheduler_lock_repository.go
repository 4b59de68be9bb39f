package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

type SchedulerLockRepository interface {
	Acquire(ctx context.Context, lockKey, ownerID string, leaseSeconds int64) (bool, error)
	Release(ctx context.Context, lockKey, ownerID string) error
}

type schedulerLockRepository struct {
	db *sql.DB
}

func NewSchedulerLockRepository(db *sql.DB) SchedulerLockRepository {
	return &schedulerLockRepository{db: db}
}

// Acquire takes the lease for lockKey when it is expired or already owned
// by the caller. The conditional UPDATE is the only mutual-exclusion
// primitive: rows affected == 1 means the lease is held.
func (r *schedulerLockRepository) Acquire(ctx context.Context, lockKey, ownerID string, leaseSeconds int64) (bool, error) {
	ensure := `INSERT INTO scheduler_locks (lock_key, owner_id, lease_until) VALUES ($1, '', 0) ON CONFLICT (lock_key) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, ensure, lockKey); err != nil {
		slog.Info(err.Error())
		return false, err
	}

	now := time.Now().Unix()
	query := `
		UPDATE scheduler_locks
		SET owner_id = $2, lease_until = $3
		WHERE lock_key = $1 AND (lease_until < $4 OR owner_id = $2)
	`
	res, err := r.db.ExecContext(ctx, query, lockKey, ownerID, now+leaseSeconds, now)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return affected == 1, nil
}

// Release clears the lease, but only while the caller still owns it. A
// stale owner must never clear a lease it no longer holds.
func (r *schedulerLockRepository) Release(ctx context.Context, lockKey, ownerID string) error {
	query := `UPDATE scheduler_locks SET lease_until = 0 WHERE lock_key = $1 AND owner_id = $2`
	_, err := r.db.ExecContext(ctx, query, lockKey, ownerID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
