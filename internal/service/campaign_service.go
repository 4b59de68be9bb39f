package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/transfer"
)

var validTaskTypes = map[string]struct{}{
	models.TaskTypePost:     {},
	models.TaskTypeReply:    {},
	models.TaskTypeDM:       {},
	models.TaskTypeLike:     {},
	models.TaskTypeResearch: {},
	models.TaskTypeApproval: {},
}

type CampaignService interface {
	CreateCampaign(ctx context.Context, cc *transfer.CampaignCreation) (int64, error)
	CreateTask(ctx context.Context, tc *transfer.TaskCreation) (int64, error)
	DecideApproval(ctx context.Context, ad *transfer.ApprovalDecision) error
}

type campaignService struct {
	cr repository.CampaignRepository
	tr repository.CampaignTaskRepository
	ar repository.CampaignApprovalRepository
}

func NewCampaignService(
	cr repository.CampaignRepository,
	tr repository.CampaignTaskRepository,
	ar repository.CampaignApprovalRepository) CampaignService {
	return &campaignService{
		cr: cr,
		tr: tr,
		ar: ar,
	}
}

func (s *campaignService) CreateCampaign(ctx context.Context, cc *transfer.CampaignCreation) (int64, error) {
	if cc == nil || cc.Name == "" {
		err := errors.New("campaign name cannot be empty")
		slog.Info(err.Error())
		return 0, err
	}
	return s.cr.Create(ctx, &models.Campaign{Name: cc.Name})
}

func (s *campaignService) CreateTask(ctx context.Context, tc *transfer.TaskCreation) (int64, error) {
	if tc == nil {
		err := errors.New("task creation data is nil")
		slog.Error(err.Error())
		return 0, err
	}
	if _, ok := validTaskTypes[tc.TaskType]; !ok {
		err := fmt.Errorf("unknown task type %q", tc.TaskType)
		slog.Info(err.Error())
		return 0, err
	}

	campaign, err := s.cr.GetByID(ctx, tc.CampaignID)
	if err != nil {
		return 0, err
	}
	if campaign == nil {
		err = errors.New("campaign doesn't exist")
		slog.Info(err.Error())
		return 0, err
	}

	dueAt := time.Now()
	if tc.DueAt != "" {
		dueAt, err = time.Parse(scheduledTimeLayout, tc.DueAt)
		if err != nil {
			err = fmt.Errorf("invalid due time format: %w", err)
			slog.Error(err.Error())
			return 0, err
		}
	}

	task := models.CampaignTask{
		CampaignID:       tc.CampaignID,
		TaskType:         tc.TaskType,
		Details:          tc.Details,
		Priority:         tc.Priority,
		DueAt:            dueAt,
		RequiresApproval: tc.RequiresApproval,
	}
	return s.tr.Create(ctx, &task)
}

// DecideApproval records the operator decision and moves the linked task:
// approved sends it back to pending so the next campaign run picks it up,
// rejected skips it with the decision note.
func (s *campaignService) DecideApproval(ctx context.Context, ad *transfer.ApprovalDecision) error {
	approval, err := s.ar.GetByID(ctx, ad.ApprovalID)
	if err != nil {
		return err
	}
	if approval == nil {
		err = errors.New("approval doesn't exist")
		slog.Info(err.Error())
		return err
	}
	if approval.Status != models.ApprovalStatusPending {
		err = errors.New("approval is already decided")
		slog.Info(err.Error())
		return err
	}

	status := models.ApprovalStatusRejected
	if ad.Approve {
		status = models.ApprovalStatusApproved
	}
	if err := s.ar.Decide(ctx, ad.ApprovalID, status, ad.Note); err != nil {
		return err
	}

	if approval.TaskID == 0 {
		return nil
	}

	if ad.Approve {
		return s.tr.UpdateStatus(ctx, approval.TaskID, models.TaskStatusPending)
	}
	return s.tr.SetTerminal(ctx, approval.TaskID, models.TaskStatusSkipped, fmt.Sprintf("approval rejected: %s", ad.Note))
}
