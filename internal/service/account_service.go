package service

import (
	"context"
	"errors"
	"log/slog"

	config "github.com/postpilothq/postpilot/configs"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platform"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/transfer"
	"github.com/postpilothq/postpilot/pkg/utils"
)

// AccountService resolves account slots to usable platform credentials.
// ResolveBySlot returns (nil, nil) when no connected account exists for the
// slot; callers decide whether that is fatal.
type AccountService interface {
	ResolveBySlot(ctx context.Context, accountSlot string) (*platform.Credentials, error)
	HasConnectedAccounts(ctx context.Context) (bool, error)
	Connect(ctx context.Context, ac *transfer.AccountConnect) (int64, error)
	Disconnect(ctx context.Context, accountSlot string) error
}

type accountService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewAccountService(cfg config.Config, sa repository.SocialAccountRepository) AccountService {
	return &accountService{cfg: cfg, sa: sa}
}

func (s *accountService) ResolveBySlot(ctx context.Context, accountSlot string) (*platform.Credentials, error) {
	acc, err := s.sa.GetBySlot(ctx, accountSlot)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, nil
	}

	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}
	accessSecret, err := utils.Decrypt(acc.AccessSecret, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	return &platform.Credentials{
		AccessToken:    accessToken,
		AccessSecret:   accessSecret,
		PlatformUserID: acc.PlatformUserID,
	}, nil
}

func (s *accountService) HasConnectedAccounts(ctx context.Context) (bool, error) {
	accounts, err := s.sa.ListConnected(ctx)
	if err != nil {
		return false, err
	}
	return len(accounts) > 0, nil
}

func (s *accountService) Connect(ctx context.Context, ac *transfer.AccountConnect) (int64, error) {
	if ac.AccountSlot == "" || ac.AccessToken == "" {
		err := errors.New("account slot and access token are required")
		slog.Info(err.Error())
		return 0, err
	}

	encryptedToken, err := utils.Encrypt([]byte(ac.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return 0, err
	}
	encryptedSecret, err := utils.Encrypt([]byte(ac.AccessSecret), []byte(s.cfg.SecretKey))
	if err != nil {
		return 0, err
	}

	return s.sa.Create(ctx, &models.SocialAccount{
		AccountSlot:    ac.AccountSlot,
		AccountName:    ac.AccountName,
		PlatformUserID: ac.PlatformUserID,
		AccessToken:    encryptedToken,
		AccessSecret:   encryptedSecret,
	})
}

func (s *accountService) Disconnect(ctx context.Context, accountSlot string) error {
	return s.sa.UpdateStatus(ctx, accountSlot, models.AccountStatusDisconnected)
}
