package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
)

var allowedMediaTypes = map[string]struct{}{
	"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {}, "gif": {},
}

// AssetService accepts raw media uploads, sniffs their type and stores them
// in R2 under a generated key. The key doubles as the media ref posts carry.
type AssetService interface {
	SaveAsset(ctx context.Context, data []byte) (string, error)
	ResolveAsset(ctx context.Context, ref string) (*models.MediaAsset, error)
}

type assetService struct {
	ma    repository.MediaAssetRepository
	media *MediaService
}

func NewAssetService(ma repository.MediaAssetRepository, media *MediaService) AssetService {
	return &assetService{ma: ma, media: media}
}

func (s *assetService) SaveAsset(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		err := errors.New("no file content provided")
		slog.Info(err.Error())
		return "", err
	}

	fileType, err := filetype.Match(data)
	if err != nil || fileType == types.Unknown {
		return "", fmt.Errorf("unsupported file type: %w", err)
	}
	if _, ok := allowedMediaTypes[fileType.Extension]; !ok {
		return "", fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	if err := s.media.Upload(ctx, key, data, fileType.MIME.Value); err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}

	asset := models.MediaAsset{
		FileName: key,
		FileType: fileType.MIME.Value,
		FileSize: int64(len(data)),
		FileURL:  key,
	}
	if _, err := s.ma.Create(ctx, &asset); err != nil {
		return "", err
	}

	return key, nil
}

func (s *assetService) ResolveAsset(ctx context.Context, ref string) (*models.MediaAsset, error) {
	return s.ma.GetByFileName(ctx, ref)
}
