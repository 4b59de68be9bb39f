package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
)

type SocialAccountRepository interface {
	GetBySlot(ctx context.Context, accountSlot string) (*models.SocialAccount, error)
	ListConnected(ctx context.Context) ([]*models.SocialAccount, error)
	Create(ctx context.Context, account *models.SocialAccount) (int64, error)
	UpdateStatus(ctx context.Context, accountSlot, status string) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `id, account_slot, account_name, platform_user_id, access_token, access_secret, account_status, created_at, updated_at`

func scanSocialAccount(row interface{ Scan(...any) error }) (*models.SocialAccount, error) {
	var acc models.SocialAccount
	err := row.Scan(&acc.ID, &acc.AccountSlot, &acc.AccountName, &acc.PlatformUserID,
		&acc.AccessToken, &acc.AccessSecret, &acc.AccountStatus, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *socialAccountRepository) GetBySlot(ctx context.Context, accountSlot string) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE account_slot = $1 AND account_status = $2`
	acc, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, accountSlot, models.AccountStatusConnected))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return acc, nil
}

func (r *socialAccountRepository) ListConnected(ctx context.Context) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE account_status = $1`
	rows, err := r.db.QueryContext(ctx, query, models.AccountStatusConnected)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		acc, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *socialAccountRepository) Create(ctx context.Context, account *models.SocialAccount) (int64, error) {
	query := `
		INSERT INTO social_accounts (account_slot, account_name, platform_user_id, access_token, access_secret, account_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, account.AccountSlot, account.AccountName,
		account.PlatformUserID, account.AccessToken, account.AccessSecret, models.AccountStatusConnected).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *socialAccountRepository) UpdateStatus(ctx context.Context, accountSlot, status string) error {
	query := `UPDATE social_accounts SET account_status = $1, updated_at = $2 WHERE account_slot = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), accountSlot)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
