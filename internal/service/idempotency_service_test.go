package service

import (
	"context"
	"testing"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithIdempotencyInvokesHandlerOnce(t *testing.T) {
	repo := newFakeIdempotencyRepo()
	svc := NewIdempotencyService(repo, time.Hour)

	calls := 0
	handler := func() (int, []byte, error) {
		calls++
		return 200, []byte(`{"id":1}`), nil
	}

	status, body, replayed, err := svc.WithIdempotency(context.Background(), "posts", "key-1", handler)
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.False(t, replayed)

	status2, body2, replayed2, err := svc.WithIdempotency(context.Background(), "posts", "key-1", handler)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, replayed2)
	assert.Equal(t, status, status2)
	assert.Equal(t, body, body2)
}

func TestWithIdempotencyWithoutKeyCallsThrough(t *testing.T) {
	repo := newFakeIdempotencyRepo()
	svc := NewIdempotencyService(repo, time.Hour)

	calls := 0
	handler := func() (int, []byte, error) {
		calls++
		return 200, []byte("ok"), nil
	}

	for i := 0; i < 3; i++ {
		_, _, replayed, err := svc.WithIdempotency(context.Background(), "posts", "", handler)
		require.NoError(t, err)
		assert.False(t, replayed)
	}
	assert.Equal(t, 3, calls)
}

func TestWithIdempotencyScopesAreIndependent(t *testing.T) {
	repo := newFakeIdempotencyRepo()
	svc := NewIdempotencyService(repo, time.Hour)

	calls := 0
	handler := func() (int, []byte, error) {
		calls++
		return 200, []byte("ok"), nil
	}

	_, _, _, err := svc.WithIdempotency(context.Background(), "posts", "key-1", handler)
	require.NoError(t, err)
	_, _, replayed, err := svc.WithIdempotency(context.Background(), "actions", "key-1", handler)
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, 2, calls)
}

func TestCheckEvictsExpiredRecord(t *testing.T) {
	repo := newFakeIdempotencyRepo()
	repo.records["posts|stale"] = &models.IdempotencyRecord{
		ID:         1,
		Scope:      "posts",
		Key:        "stale",
		StatusCode: 200,
		ExpiresAt:  time.Now().Add(-time.Minute),
	}
	svc := NewIdempotencyService(repo, time.Hour)

	rec, err := svc.Check(context.Background(), "posts", "stale")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, repo.records)
}

func TestCheckRunsJanitorPeriodically(t *testing.T) {
	repo := newFakeIdempotencyRepo()
	svc := NewIdempotencyService(repo, time.Hour)

	for i := 0; i < 128; i++ {
		_, err := svc.Check(context.Background(), "posts", "any")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, repo.sweeps)
}
