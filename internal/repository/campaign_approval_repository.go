package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
)

type CampaignApprovalRepository interface {
	Create(ctx context.Context, approval *models.CampaignApproval) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.CampaignApproval, error)
	Decide(ctx context.Context, id int64, status, decisionNote string) error
}

type campaignApprovalRepository struct {
	db *sql.DB
}

func NewCampaignApprovalRepository(db *sql.DB) CampaignApprovalRepository {
	return &campaignApprovalRepository{db: db}
}

func (r *campaignApprovalRepository) Create(ctx context.Context, approval *models.CampaignApproval) (int64, error) {
	query := `
		INSERT INTO campaign_approvals (campaign_id, task_id, status, requested_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, approval.CampaignID, approval.TaskID,
		models.ApprovalStatusPending, approval.RequestedBy).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *campaignApprovalRepository) GetByID(ctx context.Context, id int64) (*models.CampaignApproval, error) {
	query := `SELECT id, campaign_id, task_id, status, requested_by, decision_note, created_at, updated_at FROM campaign_approvals WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var approval models.CampaignApproval
	err := row.Scan(&approval.ID, &approval.CampaignID, &approval.TaskID, &approval.Status,
		&approval.RequestedBy, &approval.DecisionNote, &approval.CreatedAt, &approval.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &approval, nil
}

func (r *campaignApprovalRepository) Decide(ctx context.Context, id int64, status, decisionNote string) error {
	query := `UPDATE campaign_approvals SET status = $1, decision_note = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, status, decisionNote, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
