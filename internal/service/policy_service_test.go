package service

import (
	"context"
	"testing"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPolicyDefaultsApplyWhenUnconfigured(t *testing.T) {
	posts := newFakePostRepo()
	actions := newFakeActionRepo()
	svc := NewPolicyService(&fakePolicyConfigRepo{}, posts, actions)

	decision, err := svc.CheckPolicy(context.Background(), &PolicyCheck{
		AccountSlot: "main",
		ActionType:  "post",
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCheckPolicyRateLimitBoundary(t *testing.T) {
	cfg := models.DefaultPolicyConfig("main")
	cfg.MaxRepliesPerHour = 20

	tests := []struct {
		name    string
		count   int
		allowed bool
	}{
		{"one below limit allowed", 19, true},
		{"at limit denied", 20, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions := newFakeActionRepo()
			actions.actionCount = tt.count
			svc := NewPolicyService(&fakePolicyConfigRepo{cfg: cfg}, newFakePostRepo(), actions)

			decision, err := svc.CheckPolicy(context.Background(), &PolicyCheck{
				AccountSlot: "main",
				ActionType:  models.ActionTypeReply,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, decision.Allowed)
			if !tt.allowed {
				assert.Contains(t, decision.Reason, "rate limit reached")
			}
		})
	}
}

func TestCheckPolicyWindowWrapAround(t *testing.T) {
	cfg := models.DefaultPolicyConfig("main")
	cfg.AllowedWindowStart = 22
	cfg.AllowedWindowEnd = 6

	tests := []struct {
		hour    int
		allowed bool
	}{
		{23, true},
		{2, true},
		{10, false},
	}
	for _, tt := range tests {
		at := time.Date(2026, 8, 24, tt.hour, 30, 0, 0, time.UTC)
		svc := NewPolicyService(&fakePolicyConfigRepo{cfg: cfg}, newFakePostRepo(), newFakeActionRepo())

		decision, err := svc.CheckPolicy(context.Background(), &PolicyCheck{
			AccountSlot: "main",
			ActionType:  models.ActionTypeLike,
			At:          at,
		})
		require.NoError(t, err)
		assert.Equal(t, tt.allowed, decision.Allowed, "hour %d", tt.hour)
		if !tt.allowed {
			assert.Contains(t, decision.Reason, "outside allowed window")
		}
	}
}

func TestCheckPolicyRepostsSharePostQuota(t *testing.T) {
	cfg := models.DefaultPolicyConfig("main")
	cfg.MaxPostsPerDay = 10

	posts := newFakePostRepo()
	posts.postCount = 7
	actions := newFakeActionRepo()
	actions.actionCount = 3
	svc := NewPolicyService(&fakePolicyConfigRepo{cfg: cfg}, posts, actions)

	decision, err := svc.CheckPolicy(context.Background(), &PolicyCheck{
		AccountSlot: "main",
		ActionType:  models.ActionTypeRepost,
	})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestCheckPolicyExcludesOwnAction(t *testing.T) {
	actions := newFakeActionRepo()
	svc := NewPolicyService(&fakePolicyConfigRepo{}, newFakePostRepo(), actions)

	_, err := svc.CheckPolicy(context.Background(), &PolicyCheck{
		AccountSlot:     "main",
		ActionType:      models.ActionTypeDM,
		ExcludeActionID: 42,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), actions.lastExclude)
}

func TestCheckPolicyUnknownActionType(t *testing.T) {
	svc := NewPolicyService(&fakePolicyConfigRepo{}, newFakePostRepo(), newFakeActionRepo())

	_, err := svc.CheckPolicy(context.Background(), &PolicyCheck{
		AccountSlot: "main",
		ActionType:  "subscribe",
	})
	assert.Error(t, err)
}

func TestCheckPolicyBadTimezoneFallsBackToUTC(t *testing.T) {
	cfg := models.DefaultPolicyConfig("main")
	cfg.Timezone = "Mars/Olympus"
	cfg.AllowedWindowStart = 9
	cfg.AllowedWindowEnd = 17

	svc := NewPolicyService(&fakePolicyConfigRepo{cfg: cfg}, newFakePostRepo(), newFakeActionRepo())

	decision, err := svc.CheckPolicy(context.Background(), &PolicyCheck{
		AccountSlot: "main",
		ActionType:  models.ActionTypeLike,
		At:          time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
