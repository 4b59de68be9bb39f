package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
)

type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type campaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Create(ctx context.Context, campaign *models.Campaign) (int64, error) {
	query := `INSERT INTO campaigns (name, status) VALUES ($1, $2) RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query, campaign.Name, models.CampaignStatusActive).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *campaignRepository) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	query := `SELECT id, name, status, created_at, updated_at FROM campaigns WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var campaign models.Campaign
	err := row.Scan(&campaign.ID, &campaign.Name, &campaign.Status, &campaign.CreatedAt, &campaign.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &campaign, nil
}

func (r *campaignRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE campaigns SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
