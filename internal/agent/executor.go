// Package agent runs campaign tasks on demand: one task or a capped batch,
// gated on operator approval, with a run/step audit trail. Posting and
// engagement go through the same account, policy and platform primitives
// the schedulers use.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platform"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/service"
)

type ExecuteOptions struct {
	DryRun bool
	Actor  string
}

type TaskResult struct {
	TaskID          int64  `json:"task_id"`
	RunID           string `json:"run_id,omitempty"`
	Status          string `json:"status"`
	Output          string `json:"output,omitempty"`
	WaitingApproval bool   `json:"waiting_approval,omitempty"`
	DryRun          bool   `json:"dry_run,omitempty"`
}

type CampaignOptions struct {
	MaxTasks  int
	OnlyTypes []string
	Until     time.Time
	DryRun    bool
	Actor     string
}

type CampaignSummary struct {
	RunID           string `json:"run_id"`
	Attempted       int    `json:"attempted"`
	Completed       int    `json:"completed"`
	Failed          int    `json:"failed"`
	Skipped         int    `json:"skipped"`
	WaitingApproval int    `json:"waiting_approval"`
	DryRun          int    `json:"dry_run"`
}

const defaultMaxTasks = 10

type Executor struct {
	campaigns repository.CampaignRepository
	tasks     repository.CampaignTaskRepository
	approvals repository.CampaignApprovalRepository
	runs      repository.RunRepository
	audit     repository.EngagementActionRepository
	accounts  service.AccountService
	policy    service.PolicyService
	client    platform.Client
}

func NewExecutor(
	campaigns repository.CampaignRepository,
	tasks repository.CampaignTaskRepository,
	approvals repository.CampaignApprovalRepository,
	runs repository.RunRepository,
	audit repository.EngagementActionRepository,
	accounts service.AccountService,
	policy service.PolicyService,
	client platform.Client) *Executor {
	return &Executor{
		campaigns: campaigns,
		tasks:     tasks,
		approvals: approvals,
		runs:      runs,
		audit:     audit,
		accounts:  accounts,
		policy:    policy,
		client:    client,
	}
}

// ExecuteTask runs one campaign task. Terminal tasks short-circuit with
// their cached output; unapproved tasks park in waiting_approval without
// side effects, and calling again keeps re-checking the same linked
// approval rather than creating duplicates.
func (e *Executor) ExecuteTask(ctx context.Context, taskID int64, opts ExecuteOptions) (*TaskResult, error) {
	task, err := e.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("task %d doesn't exist", taskID)
	}

	if task.Status == models.TaskStatusDone || task.Status == models.TaskStatusSkipped {
		return &TaskResult{TaskID: task.ID, Status: task.Status, Output: task.Output}, nil
	}

	if task.RequiresApproval || task.TaskType == models.TaskTypeApproval {
		proceed, result, err := e.checkApproval(ctx, task, opts)
		if err != nil {
			return nil, err
		}
		if !proceed {
			return result, nil
		}
	}

	runID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	input, _ := json.Marshal(map[string]any{"task_id": task.ID, "task_type": task.TaskType, "dry_run": opts.DryRun, "actor": opts.Actor})
	run := models.AgentRun{
		ID:         runID,
		CampaignID: task.CampaignID,
		TaskID:     task.ID,
		DryRun:     opts.DryRun,
		Input:      string(input),
	}
	if err := e.runs.CreateRun(ctx, &run); err != nil {
		return nil, err
	}

	if opts.DryRun {
		return e.planOnly(ctx, task, runID)
	}

	if err := e.tasks.UpdateStatus(ctx, task.ID, models.TaskStatusInProgress); err != nil {
		return nil, err
	}

	stepInput, _ := json.Marshal(task.Details)
	stepID, err := e.runs.CreateStep(ctx, &models.AgentRunStep{RunID: runID, StepType: "execute", Input: string(stepInput)})
	if err != nil {
		return nil, err
	}

	output, execErr := e.dispatch(ctx, task)
	if execErr != nil {
		msg := execErr.Error()
		if platform.IsRateLimited(msg) {
			msg = "rate limited: " + msg
		}
		if err := e.tasks.SetTerminal(ctx, task.ID, models.TaskStatusFailed, msg); err != nil {
			slog.Info(err.Error())
		}
		if err := e.runs.CompleteStep(ctx, stepID, models.StepStatusFailed, "", msg); err != nil {
			slog.Info(err.Error())
		}
		if err := e.runs.CompleteRun(ctx, runID, models.RunStatusFailed, "", msg); err != nil {
			slog.Info(err.Error())
		}
		return &TaskResult{TaskID: task.ID, RunID: runID, Status: models.TaskStatusFailed, Output: msg}, nil
	}

	if err := e.tasks.SetTerminal(ctx, task.ID, models.TaskStatusDone, output); err != nil {
		return nil, err
	}
	if err := e.runs.CompleteStep(ctx, stepID, models.StepStatusCompleted, output, ""); err != nil {
		slog.Info(err.Error())
	}
	if err := e.runs.CompleteRun(ctx, runID, models.RunStatusCompleted, output, ""); err != nil {
		slog.Info(err.Error())
	}

	return &TaskResult{TaskID: task.ID, RunID: runID, Status: models.TaskStatusDone, Output: output}, nil
}

// checkApproval resolves the task's linked approval, lazily creating a
// pending one on first contact. proceed is true only for approved.
func (e *Executor) checkApproval(ctx context.Context, task *models.CampaignTask, opts ExecuteOptions) (proceed bool, result *TaskResult, err error) {
	var approval *models.CampaignApproval
	if task.ApprovalID != 0 {
		approval, err = e.approvals.GetByID(ctx, task.ApprovalID)
		if err != nil {
			return false, nil, err
		}
	}

	if approval == nil {
		approvalID, err := e.approvals.Create(ctx, &models.CampaignApproval{
			CampaignID:  task.CampaignID,
			TaskID:      task.ID,
			RequestedBy: opts.Actor,
		})
		if err != nil {
			return false, nil, err
		}
		if err := e.tasks.SetApprovalID(ctx, task.ID, approvalID); err != nil {
			return false, nil, err
		}
		if err := e.tasks.UpdateStatus(ctx, task.ID, models.TaskStatusWaitingApproval); err != nil {
			return false, nil, err
		}
		return false, &TaskResult{TaskID: task.ID, Status: models.TaskStatusWaitingApproval, WaitingApproval: true}, nil
	}

	switch approval.Status {
	case models.ApprovalStatusApproved:
		return true, nil, nil
	case models.ApprovalStatusRejected:
		output := fmt.Sprintf("approval rejected: %s", approval.DecisionNote)
		if err := e.tasks.SetTerminal(ctx, task.ID, models.TaskStatusSkipped, output); err != nil {
			return false, nil, err
		}
		return false, &TaskResult{TaskID: task.ID, Status: models.TaskStatusSkipped, Output: output}, nil
	default:
		if task.Status != models.TaskStatusWaitingApproval {
			if err := e.tasks.UpdateStatus(ctx, task.ID, models.TaskStatusWaitingApproval); err != nil {
				return false, nil, err
			}
		}
		return false, &TaskResult{TaskID: task.ID, Status: models.TaskStatusWaitingApproval, WaitingApproval: true}, nil
	}
}

// planOnly records what would execute without touching the platform or the
// task row.
func (e *Executor) planOnly(ctx context.Context, task *models.CampaignTask, runID string) (*TaskResult, error) {
	plan := fmt.Sprintf("would execute %s task %d for slot %s", task.TaskType, task.ID, task.Details["account_slot"])
	stepID, err := e.runs.CreateStep(ctx, &models.AgentRunStep{RunID: runID, StepType: "plan", Input: plan})
	if err != nil {
		return nil, err
	}
	if err := e.runs.CompleteStep(ctx, stepID, models.StepStatusCompleted, plan, ""); err != nil {
		slog.Info(err.Error())
	}
	if err := e.runs.CompleteRun(ctx, runID, models.RunStatusCompleted, plan, ""); err != nil {
		slog.Info(err.Error())
	}
	return &TaskResult{TaskID: task.ID, RunID: runID, Status: task.Status, Output: plan, DryRun: true}, nil
}

// dispatch mirrors the scheduler pipelines: policy check, account
// resolution, platform call, audit record.
func (e *Executor) dispatch(ctx context.Context, task *models.CampaignTask) (string, error) {
	switch task.TaskType {
	case models.TaskTypePost:
		return e.runPost(ctx, task, "")
	case models.TaskTypeReply:
		target := task.Details["target_id"]
		if target == "" {
			return "", errors.New("reply task requires detail target_id")
		}
		return e.runPost(ctx, task, target)
	case models.TaskTypeDM:
		return e.runDM(ctx, task)
	case models.TaskTypeLike:
		return e.runLike(ctx, task)
	case models.TaskTypeResearch:
		// Research tasks only record their findings; no platform calls.
		notes := task.Details["notes"]
		if notes == "" {
			notes = task.Details["query"]
		}
		return notes, nil
	case models.TaskTypeApproval:
		return "approved", nil
	}

	return "", fmt.Errorf("unknown task type %q", task.TaskType)
}

func (e *Executor) resolve(ctx context.Context, task *models.CampaignTask, actionType string) (string, *platform.Credentials, error) {
	slot := task.Details["account_slot"]
	if slot == "" {
		return "", nil, errors.New("task requires detail account_slot")
	}

	decision, err := e.policy.CheckPolicy(ctx, &service.PolicyCheck{AccountSlot: slot, ActionType: actionType})
	if err != nil {
		return "", nil, err
	}
	if !decision.Allowed {
		return "", nil, errors.New(decision.Reason)
	}

	creds, err := e.accounts.ResolveBySlot(ctx, slot)
	if err != nil {
		return "", nil, err
	}
	if creds == nil {
		return "", nil, fmt.Errorf("account %s is not connected", slot)
	}
	return slot, creds, nil
}

func (e *Executor) runPost(ctx context.Context, task *models.CampaignTask, replyToID string) (string, error) {
	text := task.Details["text"]
	if text == "" {
		return "", errors.New("task requires detail text")
	}

	actionType := "post"
	if replyToID != "" {
		actionType = models.ActionTypeReply
	}
	slot, creds, err := e.resolve(ctx, task, actionType)
	if err != nil {
		return "", err
	}

	res, err := e.client.PostContent(ctx, text, creds, nil, task.Details["community_id"], replyToID)
	if err != nil {
		return "", err
	}
	if len(res.Errors) > 0 {
		return "", errors.New(platform.JoinErrors(res.Errors))
	}
	if res.Data == nil || res.Data.ID == "" {
		return "", errors.New("post response missing id")
	}

	if replyToID != "" {
		e.recordAudit(ctx, slot, models.ActionTypeReply, replyToID, res.Data.ID)
	}
	return res.Data.ID, nil
}

func (e *Executor) runDM(ctx context.Context, task *models.CampaignTask) (string, error) {
	recipient := task.Details["recipient_id"]
	text := task.Details["text"]
	if recipient == "" || text == "" {
		return "", errors.New("dm task requires details recipient_id and text")
	}

	slot, creds, err := e.resolve(ctx, task, models.ActionTypeDM)
	if err != nil {
		return "", err
	}

	if err := e.client.SendDirectMessage(ctx, recipient, text, creds); err != nil {
		return "", err
	}
	e.recordAudit(ctx, slot, models.ActionTypeDM, recipient, "sent")
	return "sent", nil
}

func (e *Executor) runLike(ctx context.Context, task *models.CampaignTask) (string, error) {
	target := task.Details["target_id"]
	if target == "" {
		return "", errors.New("like task requires detail target_id")
	}

	slot, creds, err := e.resolve(ctx, task, models.ActionTypeLike)
	if err != nil {
		return "", err
	}

	if err := e.client.LikeContent(ctx, target, creds); err != nil {
		return "", err
	}
	e.recordAudit(ctx, slot, models.ActionTypeLike, target, "liked")
	return "liked", nil
}

func (e *Executor) recordAudit(ctx context.Context, slot, actionType, targetID, result string) {
	if _, err := e.audit.Create(ctx, &models.EngagementAction{
		AccountSlot: slot,
		ActionType:  actionType,
		TargetID:    targetID,
		Result:      result,
	}); err != nil {
		slog.Info(err.Error())
	}
}

// ExecuteCampaign runs a capped batch of eligible tasks independently; one
// task's failure never stops the batch. The parent run fails only when
// every attempted task failed.
func (e *Executor) ExecuteCampaign(ctx context.Context, campaignID int64, opts CampaignOptions) (*CampaignSummary, error) {
	campaign, err := e.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, fmt.Errorf("campaign %d doesn't exist", campaignID)
	}
	if campaign.Status != models.CampaignStatusActive {
		return nil, fmt.Errorf("campaign %d is %s, not active", campaignID, campaign.Status)
	}

	maxTasks := opts.MaxTasks
	if maxTasks <= 0 {
		maxTasks = defaultMaxTasks
	}
	until := opts.Until
	if until.IsZero() {
		until = time.Now()
	}

	runID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	input, _ := json.Marshal(map[string]any{"campaign_id": campaignID, "max_tasks": maxTasks, "only_types": opts.OnlyTypes, "dry_run": opts.DryRun})
	parent := models.AgentRun{ID: runID, CampaignID: campaignID, DryRun: opts.DryRun, Input: string(input)}
	if err := e.runs.CreateRun(ctx, &parent); err != nil {
		return nil, err
	}

	tasks, err := e.tasks.ListEligible(ctx, campaignID, opts.OnlyTypes, until, maxTasks)
	if err != nil {
		if completeErr := e.runs.CompleteRun(ctx, runID, models.RunStatusFailed, "", err.Error()); completeErr != nil {
			slog.Info(completeErr.Error())
		}
		return nil, err
	}

	summary := &CampaignSummary{RunID: runID}
	for _, task := range tasks {
		summary.Attempted++
		result, err := e.ExecuteTask(ctx, task.ID, ExecuteOptions{DryRun: opts.DryRun, Actor: opts.Actor})
		if err != nil {
			slog.Info(err.Error())
			summary.Failed++
			continue
		}
		switch {
		case result.DryRun:
			summary.DryRun++
		case result.WaitingApproval:
			summary.WaitingApproval++
		case result.Status == models.TaskStatusDone:
			summary.Completed++
		case result.Status == models.TaskStatusSkipped:
			summary.Skipped++
		case result.Status == models.TaskStatusFailed:
			summary.Failed++
		}
	}

	status := models.RunStatusCompleted
	if summary.Attempted > 0 && summary.Failed == summary.Attempted {
		status = models.RunStatusFailed
	}
	output, _ := json.Marshal(summary)
	if err := e.runs.CompleteRun(ctx, runID, status, string(output), ""); err != nil {
		slog.Info(err.Error())
	}

	return summary, nil
}
