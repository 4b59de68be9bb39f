package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostScheduler(locks *fakeLockRepo, posts *fakePostRepo, accounts *fakeAccountService, client *fakePlatformClient) *PostScheduler {
	return NewPostScheduler(locks, posts, accounts, &fakeMediaFetcher{}, client, 60)
}

func mainAccount() *fakeAccountService {
	return &fakeAccountService{creds: map[string]*platform.Credentials{
		"main": {AccessToken: "tok", PlatformUserID: "u1"},
	}}
}

func TestPostCycleSkipsWhenLeaseHeld(t *testing.T) {
	locks := &fakeLockRepo{acquired: false}
	posts := newFakePostRepo()
	client := &fakePlatformClient{}
	s := newTestPostScheduler(locks, posts, mainAccount(), client)

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, client.calls)
	assert.Empty(t, locks.released)
}

func TestPostCycleReleasesLease(t *testing.T) {
	locks := &fakeLockRepo{acquired: true}
	s := newTestPostScheduler(locks, newFakePostRepo(), mainAccount(), &fakePlatformClient{})

	_, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{postCycleLockKey}, locks.released)
}

func TestPostCyclePublishesDuePost(t *testing.T) {
	locks := &fakeLockRepo{acquired: true}
	posts := newFakePostRepo()
	posts.due = []*models.ScheduledPost{
		{ID: 1, AccountSlot: "main", Text: "hello", ScheduledTime: time.Now().Add(-time.Minute)},
	}
	client := &fakePlatformClient{}
	s := newTestPostScheduler(locks, posts, mainAccount(), client)

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Posted)
	assert.Equal(t, "pid-1", posts.posted[1])
}

func TestPostCycleDefersWhenAccountMissing(t *testing.T) {
	locks := &fakeLockRepo{acquired: true}
	posts := newFakePostRepo()
	posts.due = []*models.ScheduledPost{
		{ID: 1, AccountSlot: "other", Text: "hello"},
	}
	client := &fakePlatformClient{}
	s := newTestPostScheduler(locks, posts, mainAccount(), client)

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deferred)
	assert.Empty(t, client.calls)
	assert.Empty(t, posts.failed)
}

func TestPostCyclePlatformErrorIsTerminal(t *testing.T) {
	locks := &fakeLockRepo{acquired: true}
	posts := newFakePostRepo()
	posts.due = []*models.ScheduledPost{
		{ID: 1, AccountSlot: "main", Text: "hello"},
	}
	client := &fakePlatformClient{postResult: &platform.PostResult{
		Errors: []platform.APIError{{Message: "duplicate content"}},
	}}
	s := newTestPostScheduler(locks, posts, mainAccount(), client)

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "duplicate content", posts.failed[1])
}

func TestPostCycleMissingResponseIDIsTerminal(t *testing.T) {
	locks := &fakeLockRepo{acquired: true}
	posts := newFakePostRepo()
	posts.due = []*models.ScheduledPost{
		{ID: 1, AccountSlot: "main", Text: "hello"},
	}
	client := &fakePlatformClient{postResult: &platform.PostResult{Raw: `{"data":{}}`}}
	s := newTestPostScheduler(locks, posts, mainAccount(), client)

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, posts.failed[1], "post response missing id")
}

func TestPostCycleThreadChainsReplies(t *testing.T) {
	locks := &fakeLockRepo{acquired: true}
	posts := newFakePostRepo()
	posts.due = []*models.ScheduledPost{
		{ID: 1, AccountSlot: "main", Text: "one", ThreadID: "th", ThreadIndex: 0},
		{ID: 2, AccountSlot: "main", Text: "two", ThreadID: "th", ThreadIndex: 1},
	}
	client := &fakePlatformClient{}
	s := newTestPostScheduler(locks, posts, mainAccount(), client)

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Posted)

	// Second segment replies to the first segment's fresh platform id
	// without re-reading it from the repository.
	require.Len(t, client.calls, 2)
	assert.Equal(t, "", client.calls[0].target)
	assert.Equal(t, posts.posted[1], client.calls[1].target)
}

func TestPostCycleThreadCascadeCancellation(t *testing.T) {
	locks := &fakeLockRepo{acquired: true}
	posts := newFakePostRepo()
	posts.due = []*models.ScheduledPost{
		{ID: 2, AccountSlot: "main", Text: "two", ThreadID: "th", ThreadIndex: 1},
		{ID: 3, AccountSlot: "main", Text: "three", ThreadID: "th", ThreadIndex: 2},
	}
	posts.siblings[siblingKey("th", 0)] = &models.ScheduledPost{
		ID: 1, ThreadID: "th", ThreadIndex: 0, Status: models.PostStatusFailed,
	}
	posts.siblings[siblingKey("th", 1)] = &models.ScheduledPost{
		ID: 2, ThreadID: "th", ThreadIndex: 1, Status: models.PostStatusCancelled,
	}
	client := &fakePlatformClient{}
	s := newTestPostScheduler(locks, posts, mainAccount(), client)

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed)
	assert.Empty(t, client.calls)
	assert.Contains(t, posts.cancelled[2], "thread segment 0 was failed")
	assert.Contains(t, posts.cancelled[3], "thread segment 1 was cancelled")
}

func TestPostCycleThreadDefersOnPendingParent(t *testing.T) {
	locks := &fakeLockRepo{acquired: true}
	posts := newFakePostRepo()
	posts.due = []*models.ScheduledPost{
		{ID: 2, AccountSlot: "main", Text: "two", ThreadID: "th", ThreadIndex: 1},
	}
	posts.siblings[siblingKey("th", 0)] = &models.ScheduledPost{
		ID: 1, ThreadID: "th", ThreadIndex: 0, Status: models.PostStatusScheduled,
	}
	client := &fakePlatformClient{}
	s := newTestPostScheduler(locks, posts, mainAccount(), client)

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deferred)
	assert.Empty(t, client.calls)
}
