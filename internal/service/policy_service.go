package service

import (
	"context"
	"fmt"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
)

// PolicyCheck describes one prospective action. At defaults to "now" when
// zero; ExcludeActionID keeps a due scheduled action from counting itself.
type PolicyCheck struct {
	AccountSlot     string
	ActionType      string
	At              time.Time
	ExcludeActionID int64
}

type PolicyDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// PolicyService decides whether an action is inside the account's allowed
// time window and under its rate limits. Pure read plus decision; acting on
// a refusal is the caller's job.
type PolicyService interface {
	CheckPolicy(ctx context.Context, check *PolicyCheck) (*PolicyDecision, error)
}

type policyService struct {
	cr repository.PolicyConfigRepository
	pr repository.ScheduledPostRepository
	ar repository.ScheduledActionRepository
}

func NewPolicyService(
	cr repository.PolicyConfigRepository,
	pr repository.ScheduledPostRepository,
	ar repository.ScheduledActionRepository) PolicyService {
	return &policyService{
		cr: cr,
		pr: pr,
		ar: ar,
	}
}

func (s *policyService) CheckPolicy(ctx context.Context, check *PolicyCheck) (*PolicyDecision, error) {
	cfg, err := s.cr.GetBySlot(ctx, check.AccountSlot)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = models.DefaultPolicyConfig(check.AccountSlot)
	}

	at := check.At
	if at.IsZero() {
		at = time.Now()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	hour := at.In(loc).Hour()
	if !hourInWindow(hour, cfg.AllowedWindowStart, cfg.AllowedWindowEnd) {
		return &PolicyDecision{
			Allowed: false,
			Reason:  fmt.Sprintf("outside allowed window %02d:00-%02d:00 (%s)", cfg.AllowedWindowStart, cfg.AllowedWindowEnd, cfg.Timezone),
		}, nil
	}

	count, limit, period, err := s.countActivity(ctx, check, at, cfg)
	if err != nil {
		return nil, err
	}
	if count >= limit {
		return &PolicyDecision{
			Allowed: false,
			Reason:  fmt.Sprintf("rate limit reached for %s: %d of %d in trailing %s", check.ActionType, count, limit, period),
		}, nil
	}

	return &PolicyDecision{Allowed: true}, nil
}

// countActivity returns the activity count inside the relevant trailing
// window plus the applicable limit. Reposts share the post quota.
func (s *policyService) countActivity(ctx context.Context, check *PolicyCheck, at time.Time, cfg *models.PolicyConfig) (int, int, string, error) {
	switch check.ActionType {
	case "post", models.ActionTypeRepost:
		since := at.Add(-24 * time.Hour)
		posts, err := s.pr.CountActivitySince(ctx, check.AccountSlot, since)
		if err != nil {
			return 0, 0, "", err
		}
		reposts, err := s.ar.CountActivitySince(ctx, check.AccountSlot, []string{models.ActionTypeRepost}, since, check.ExcludeActionID)
		if err != nil {
			return 0, 0, "", err
		}
		return posts + reposts, cfg.MaxPostsPerDay, "24h", nil

	case models.ActionTypeReply:
		since := at.Add(-time.Hour)
		count, err := s.ar.CountActivitySince(ctx, check.AccountSlot, []string{models.ActionTypeReply}, since, check.ExcludeActionID)
		if err != nil {
			return 0, 0, "", err
		}
		return count, cfg.MaxRepliesPerHour, "1h", nil

	case models.ActionTypeDM:
		since := at.Add(-24 * time.Hour)
		count, err := s.ar.CountActivitySince(ctx, check.AccountSlot, []string{models.ActionTypeDM}, since, check.ExcludeActionID)
		if err != nil {
			return 0, 0, "", err
		}
		return count, cfg.MaxDmsPerDay, "24h", nil

	case models.ActionTypeLike:
		since := at.Add(-time.Hour)
		count, err := s.ar.CountActivitySince(ctx, check.AccountSlot, []string{models.ActionTypeLike}, since, check.ExcludeActionID)
		if err != nil {
			return 0, 0, "", err
		}
		return count, cfg.MaxLikesPerHour, "1h", nil
	}

	return 0, 0, "", fmt.Errorf("unknown action type %q", check.ActionType)
}

// hourInWindow supports wrap-around windows: start=22, end=6 allows hours
// 22, 23 and 0 through 5.
func hourInWindow(hour, start, end int) bool {
	if start <= end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
