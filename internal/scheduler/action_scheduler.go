package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platform"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/service"
)

const actionCycleLockKey = "action-cycle"

type ActionCycleResult struct {
	Skipped   bool `json:"skipped"`
	Processed int  `json:"processed"`
	Completed int  `json:"completed"`
	Failed    int  `json:"failed"`
}

type ActionScheduler struct {
	locks        repository.SchedulerLockRepository
	actions      repository.ScheduledActionRepository
	audit        repository.EngagementActionRepository
	accounts     service.AccountService
	policy       service.PolicyService
	client       platform.Client
	ownerID      string
	leaseSeconds int64
}

func NewActionScheduler(
	locks repository.SchedulerLockRepository,
	actions repository.ScheduledActionRepository,
	audit repository.EngagementActionRepository,
	accounts service.AccountService,
	policy service.PolicyService,
	client platform.Client,
	leaseSeconds int64) *ActionScheduler {
	return &ActionScheduler{
		locks:        locks,
		actions:      actions,
		audit:        audit,
		accounts:     accounts,
		policy:       policy,
		client:       client,
		ownerID:      uuid.NewString(),
		leaseSeconds: leaseSeconds,
	}
}

// RunCycle executes every due engagement action. Actions are independent
// (no chaining), so unlike posts an unresolvable account is terminal here.
func (s *ActionScheduler) RunCycle(ctx context.Context) (*ActionCycleResult, error) {
	acquired, err := s.locks.Acquire(ctx, actionCycleLockKey, s.ownerID, s.leaseSeconds)
	if err != nil {
		return nil, err
	}
	if !acquired {
		slog.Info("action cycle skipped: lease held by another instance")
		return &ActionCycleResult{Skipped: true}, nil
	}
	defer func() {
		if err := s.locks.Release(ctx, actionCycleLockKey, s.ownerID); err != nil {
			slog.Info(err.Error())
		}
	}()

	due, err := s.actions.ListDue(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	result := &ActionCycleResult{}
	for _, action := range due {
		result.Processed++
		if s.processAction(ctx, action) {
			result.Completed++
		} else {
			result.Failed++
		}
	}

	return result, nil
}

func (s *ActionScheduler) processAction(ctx context.Context, action *models.ScheduledAction) (completed bool) {
	defer func() {
		if p := recover(); p != nil {
			msg := fmt.Sprintf("panic while executing action: %v", p)
			slog.Error(msg)
			if err := s.actions.MarkFailed(ctx, action.ID, msg); err != nil {
				slog.Info(err.Error())
			}
			completed = false
		}
	}()

	creds, err := s.accounts.ResolveBySlot(ctx, action.AccountSlot)
	if err == nil && creds == nil {
		err = fmt.Errorf("account %s is not connected", action.AccountSlot)
	}
	if err != nil {
		s.fail(ctx, action, err.Error())
		return false
	}

	decision, err := s.policy.CheckPolicy(ctx, &service.PolicyCheck{
		AccountSlot:     action.AccountSlot,
		ActionType:      action.ActionType,
		ExcludeActionID: action.ID,
	})
	if err != nil {
		s.fail(ctx, action, err.Error())
		return false
	}
	if !decision.Allowed {
		s.fail(ctx, action, decision.Reason)
		return false
	}

	result, err := s.dispatch(ctx, action, creds)
	if err != nil {
		s.fail(ctx, action, err.Error())
		return false
	}

	audit := models.EngagementAction{
		AccountSlot: action.AccountSlot,
		ActionType:  action.ActionType,
		TargetID:    action.TargetID,
		Result:      result,
	}
	if _, err := s.audit.Create(ctx, &audit); err != nil {
		slog.Info(err.Error())
	}

	if err := s.actions.MarkCompleted(ctx, action.ID, result); err != nil {
		slog.Info(err.Error())
		return false
	}
	return true
}

// dispatch validates required payload fields per action type and performs
// the platform call. Replies reuse the post-publishing path with a reply
// target.
func (s *ActionScheduler) dispatch(ctx context.Context, action *models.ScheduledAction, creds *platform.Credentials) (string, error) {
	switch action.ActionType {
	case models.ActionTypeReply:
		text := action.Payload["text"]
		if text == "" {
			return "", errors.New("reply requires payload field text")
		}
		if action.TargetID == "" {
			return "", errors.New("reply requires a target id")
		}
		res, err := s.client.PostContent(ctx, text, creds, nil, "", action.TargetID)
		if err != nil {
			return "", err
		}
		if len(res.Errors) > 0 {
			return "", errors.New(platform.JoinErrors(res.Errors))
		}
		if res.Data == nil || res.Data.ID == "" {
			return "", errors.New("reply response missing id")
		}
		return res.Data.ID, nil

	case models.ActionTypeDM:
		recipient := action.Payload["recipient_id"]
		text := action.Payload["text"]
		if recipient == "" || text == "" {
			return "", errors.New("dm requires payload fields recipient_id and text")
		}
		if err := s.client.SendDirectMessage(ctx, recipient, text, creds); err != nil {
			return "", err
		}
		return "sent", nil

	case models.ActionTypeLike:
		if action.TargetID == "" {
			return "", errors.New("like requires a target id")
		}
		if err := s.client.LikeContent(ctx, action.TargetID, creds); err != nil {
			return "", err
		}
		return "liked", nil

	case models.ActionTypeRepost:
		if action.TargetID == "" {
			return "", errors.New("repost requires a target id")
		}
		if err := s.client.RepostContent(ctx, action.TargetID, creds); err != nil {
			return "", err
		}
		return "reposted", nil
	}

	return "", fmt.Errorf("unknown action type %q", action.ActionType)
}

// fail writes the terminal status, tagging rate-limit signatures so an
// operator can tell them apart. No automatic retry: the original call may
// have succeeded server-side after a timeout, and a retry could double-post.
func (s *ActionScheduler) fail(ctx context.Context, action *models.ScheduledAction, msg string) {
	if platform.IsRateLimited(msg) {
		msg = "rate limited: " + msg
	}
	if err := s.actions.MarkFailed(ctx, action.ID, msg); err != nil {
		slog.Info(err.Error())
	}
}
