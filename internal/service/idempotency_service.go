package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
)

// janitorEvery controls how often a lookup also sweeps expired records.
// Housekeeping only; correctness relies on the per-lookup expiry check.
const janitorEvery = 64

// IdempotencyHandler produces the response that gets cached on first call.
type IdempotencyHandler func() (statusCode int, body []byte, err error)

type IdempotencyService interface {
	Check(ctx context.Context, scope, key string) (*models.IdempotencyRecord, error)
	Save(ctx context.Context, scope, key string, statusCode int, body []byte) error
	WithIdempotency(ctx context.Context, scope, key string, handler IdempotencyHandler) (statusCode int, body []byte, replayed bool, err error)
}

type idempotencyService struct {
	ir    repository.IdempotencyRepository
	ttl   time.Duration
	calls atomic.Uint64
}

func NewIdempotencyService(ir repository.IdempotencyRepository, ttl time.Duration) IdempotencyService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &idempotencyService{ir: ir, ttl: ttl}
}

// Check returns the stored record for (scope, key), evicting it lazily when
// expired. Every janitorEvery-th call also sweeps the whole table.
func (s *idempotencyService) Check(ctx context.Context, scope, key string) (*models.IdempotencyRecord, error) {
	if s.calls.Add(1)%janitorEvery == 0 {
		_ = s.ir.DeleteExpired(ctx, time.Now())
	}

	rec, err := s.ir.Get(ctx, scope, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	if time.Now().After(rec.ExpiresAt) {
		_ = s.ir.Delete(ctx, rec.ID)
		return nil, nil
	}
	return rec, nil
}

func (s *idempotencyService) Save(ctx context.Context, scope, key string, statusCode int, body []byte) error {
	return s.ir.Create(ctx, &models.IdempotencyRecord{
		Scope:        scope,
		Key:          key,
		StatusCode:   statusCode,
		ResponseBody: body,
		ExpiresAt:    time.Now().Add(s.ttl),
	})
}

// WithIdempotency runs handler at most once per (scope, key). Without a key
// it calls through; with a cached record it replays the stored response
// verbatim and reports replayed=true.
func (s *idempotencyService) WithIdempotency(ctx context.Context, scope, key string, handler IdempotencyHandler) (int, []byte, bool, error) {
	if key == "" {
		statusCode, body, err := handler()
		return statusCode, body, false, err
	}

	rec, err := s.Check(ctx, scope, key)
	if err != nil {
		return 0, nil, false, err
	}
	if rec != nil {
		return rec.StatusCode, rec.ResponseBody, true, nil
	}

	statusCode, body, err := handler()
	if err != nil {
		return statusCode, body, false, err
	}

	if err := s.Save(ctx, scope, key, statusCode, body); err != nil {
		return statusCode, body, false, err
	}
	return statusCode, body, false, nil
}
