package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestActionScheduler(locks *fakeLockRepo, actions *fakeActionRepo, audit *fakeEngagementRepo, policy *fakePolicyService, client *fakePlatformClient) *ActionScheduler {
	return NewActionScheduler(locks, actions, audit, mainAccount(), policy, client, 60)
}

func TestActionCycleSkipsWhenLeaseHeld(t *testing.T) {
	locks := &fakeLockRepo{acquired: false}
	client := &fakePlatformClient{}
	s := newTestActionScheduler(locks, newFakeActionRepo(), &fakeEngagementRepo{}, &fakePolicyService{}, client)

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, client.calls)
}

func TestActionCycleExecutesLike(t *testing.T) {
	locks := &fakeLockRepo{acquired: true}
	actions := newFakeActionRepo()
	actions.due = []*models.ScheduledAction{
		{ID: 1, AccountSlot: "main", ActionType: models.ActionTypeLike, TargetID: "t-9"},
	}
	audit := &fakeEngagementRepo{}
	client := &fakePlatformClient{}
	s := newTestActionScheduler(locks, actions, audit, &fakePolicyService{}, client)

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Completed)
	assert.Equal(t, "liked", actions.completed[1])
	require.Len(t, audit.records, 1)
	assert.Equal(t, models.ActionTypeLike, audit.records[0].ActionType)
}

func TestActionCyclePolicyRefusalIsTerminal(t *testing.T) {
	locks := &fakeLockRepo{acquired: true}
	actions := newFakeActionRepo()
	actions.due = []*models.ScheduledAction{
		{ID: 1, AccountSlot: "main", ActionType: models.ActionTypeLike, TargetID: "t-9"},
	}
	policy := &fakePolicyService{decision: &service.PolicyDecision{
		Allowed: false,
		Reason:  "outside allowed window 22:00-06:00 (UTC)",
	}}
	client := &fakePlatformClient{}
	s := newTestActionScheduler(locks, actions, &fakeEngagementRepo{}, policy, client)

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "outside allowed window 22:00-06:00 (UTC)", actions.failed[1])
	assert.Empty(t, client.calls)
}

func TestActionCycleExcludesSelfFromQuota(t *testing.T) {
	locks := &fakeLockRepo{acquired: true}
	actions := newFakeActionRepo()
	actions.due = []*models.ScheduledAction{
		{ID: 7, AccountSlot: "main", ActionType: models.ActionTypeLike, TargetID: "t-9"},
	}
	policy := &fakePolicyService{}
	s := newTestActionScheduler(locks, actions, &fakeEngagementRepo{}, policy, &fakePlatformClient{})

	_, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, policy.lastCheck)
	assert.Equal(t, int64(7), policy.lastCheck.ExcludeActionID)
}

func TestActionCycleDMRequiresPayload(t *testing.T) {
	locks := &fakeLockRepo{acquired: true}
	actions := newFakeActionRepo()
	actions.due = []*models.ScheduledAction{
		{ID: 1, AccountSlot: "main", ActionType: models.ActionTypeDM, Payload: map[string]string{"text": "hi"}},
	}
	client := &fakePlatformClient{}
	s := newTestActionScheduler(locks, actions, &fakeEngagementRepo{}, &fakePolicyService{}, client)

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, actions.failed[1], "recipient_id")
	assert.Empty(t, client.calls)
}

func TestActionCycleAccountMissingIsTerminal(t *testing.T) {
	locks := &fakeLockRepo{acquired: true}
	actions := newFakeActionRepo()
	actions.due = []*models.ScheduledAction{
		{ID: 1, AccountSlot: "ghost", ActionType: models.ActionTypeLike, TargetID: "t-9"},
	}
	s := newTestActionScheduler(locks, actions, &fakeEngagementRepo{}, &fakePolicyService{}, &fakePlatformClient{})

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, actions.failed[1], "not connected")
}

func TestActionCycleTagsRateLimitFailures(t *testing.T) {
	locks := &fakeLockRepo{acquired: true}
	actions := newFakeActionRepo()
	actions.due = []*models.ScheduledAction{
		{ID: 1, AccountSlot: "main", ActionType: models.ActionTypeRepost, TargetID: "t-9"},
	}
	client := &fakePlatformClient{actionErr: errors.New("request failed with status 429")}
	s := newTestActionScheduler(locks, actions, &fakeEngagementRepo{}, &fakePolicyService{}, client)

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, actions.failed[1], "rate limited: ")
}
