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

var validActionTypes = map[string]struct{}{
	models.ActionTypeReply:  {},
	models.ActionTypeDM:     {},
	models.ActionTypeLike:   {},
	models.ActionTypeRepost: {},
}

type ActionService interface {
	CreateAction(ctx context.Context, ac *transfer.ActionCreation) (int64, error)
	List(ctx context.Context, accountSlot string) ([]*models.ScheduledAction, error)
	Cancel(ctx context.Context, actionID int64) error
}

type actionService struct {
	ar repository.ScheduledActionRepository
}

func NewActionService(ar repository.ScheduledActionRepository) ActionService {
	return &actionService{ar: ar}
}

func (s *actionService) CreateAction(ctx context.Context, ac *transfer.ActionCreation) (int64, error) {
	if ac == nil {
		err := errors.New("action creation data is nil")
		slog.Error(err.Error())
		return 0, err
	}
	if ac.AccountSlot == "" {
		err := errors.New("account slot cannot be empty")
		slog.Info(err.Error())
		return 0, err
	}
	if _, ok := validActionTypes[ac.ActionType]; !ok {
		err := fmt.Errorf("unknown action type %q", ac.ActionType)
		slog.Info(err.Error())
		return 0, err
	}

	scheduledTime, err := time.Parse(scheduledTimeLayout, ac.ScheduledTime)
	if err != nil {
		err = fmt.Errorf("invalid scheduled time format: %w", err)
		slog.Error(err.Error())
		return 0, err
	}

	action := models.ScheduledAction{
		AccountSlot:   ac.AccountSlot,
		ActionType:    ac.ActionType,
		TargetID:      ac.TargetID,
		Payload:       ac.Payload,
		ScheduledTime: scheduledTime,
	}

	return s.ar.Create(ctx, &action)
}

func (s *actionService) List(ctx context.Context, accountSlot string) ([]*models.ScheduledAction, error) {
	actions, err := s.ar.ListBySlot(ctx, accountSlot)
	if err != nil {
		return nil, fmt.Errorf("error listing actions")
	}
	return actions, nil
}

func (s *actionService) Cancel(ctx context.Context, actionID int64) error {
	if actionID == 0 {
		err := errors.New("action id is not valid")
		slog.Info(err.Error())
		return err
	}

	cancelled, err := s.ar.Cancel(ctx, actionID)
	if err != nil {
		return fmt.Errorf("error cancelling action")
	}
	if !cancelled {
		err = errors.New("action is not in scheduled status")
		slog.Info(err.Error())
		return err
	}
	return nil
}
