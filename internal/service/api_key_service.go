package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/pkg/utils"
)

type ApiKeyService interface {
	GetUserID(ctx context.Context, apiKey string) (int64, error)
	CreateApiKey(ctx context.Context, userID int64) (string, error)
	RemoveApiKey(ctx context.Context, id int64) error
}

type apiKeyService struct {
	kr repository.ApiKeyRepository
}

func NewApiKeyService(kr repository.ApiKeyRepository) ApiKeyService {
	return &apiKeyService{kr: kr}
}

func (s *apiKeyService) GetUserID(ctx context.Context, apiKey string) (int64, error) {
	userID, exists, err := s.kr.GetByKey(ctx, apiKey)
	if err != nil {
		return 0, err
	}
	if !exists {
		err = errors.New("invalid api key")
		slog.Info(err.Error())
		return 0, err
	}
	return *userID, nil
}

func (s *apiKeyService) CreateApiKey(ctx context.Context, userID int64) (string, error) {
	key, err := utils.GenerateRandomKey(32)
	if err != nil {
		return "", err
	}

	if _, err := s.kr.Create(ctx, &models.ApiKey{UserID: userID, ApiKey: key}); err != nil {
		return "", err
	}
	return key, nil
}

func (s *apiKeyService) RemoveApiKey(ctx context.Context, id int64) error {
	return s.kr.Remove(ctx, id)
}
