package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerLockAcquireSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO scheduler_locks").
		WithArgs("scheduler-cycle").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE scheduler_locks").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSchedulerLockRepository(db)
	acquired, err := repo.Acquire(context.Background(), "scheduler-cycle", "owner-a", 60)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulerLockAcquireLoser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO scheduler_locks").
		WithArgs("scheduler-cycle").
		WillReturnResult(sqlmock.NewResult(0, 0))
	// Another owner holds an unexpired lease, so the conditional update
	// matches zero rows.
	mock.ExpectExec("UPDATE scheduler_locks").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewSchedulerLockRepository(db)
	acquired, err := repo.Acquire(context.Background(), "scheduler-cycle", "owner-b", 60)
	require.NoError(t, err)
	assert.False(t, acquired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulerLockReleaseOnlyByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE scheduler_locks SET lease_until = 0").
		WithArgs("scheduler-cycle", "owner-a").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewSchedulerLockRepository(db)
	// Releasing a lease that was taken over is a no-op, not an error.
	err = repo.Release(context.Background(), "scheduler-cycle", "owner-a")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
