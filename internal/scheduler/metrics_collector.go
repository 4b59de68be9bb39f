package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platform"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/service"
)

const metricsCycleLockKey = "metrics-cycle"

// MetricsCollector periodically pulls engagement numbers for recently
// posted content. Same lease pattern as the publishing cycles; a missed
// pull is harmless, the next tick catches up.
type MetricsCollector struct {
	locks        repository.SchedulerLockRepository
	posts        repository.ScheduledPostRepository
	metrics      repository.PostMetricsRepository
	accounts     service.AccountService
	client       platform.Client
	ownerID      string
	leaseSeconds int64
	lookback     time.Duration
}

func NewMetricsCollector(
	locks repository.SchedulerLockRepository,
	posts repository.ScheduledPostRepository,
	metrics repository.PostMetricsRepository,
	accounts service.AccountService,
	client platform.Client,
	leaseSeconds int64) *MetricsCollector {
	return &MetricsCollector{
		locks:        locks,
		posts:        posts,
		metrics:      metrics,
		accounts:     accounts,
		client:       client,
		ownerID:      uuid.NewString(),
		leaseSeconds: leaseSeconds,
		lookback:     48 * time.Hour,
	}
}

func (s *MetricsCollector) RunCycle(ctx context.Context) (int, error) {
	acquired, err := s.locks.Acquire(ctx, metricsCycleLockKey, s.ownerID, s.leaseSeconds)
	if err != nil {
		return 0, err
	}
	if !acquired {
		slog.Info("metrics cycle skipped: lease held by another instance")
		return 0, nil
	}
	defer func() {
		if err := s.locks.Release(ctx, metricsCycleLockKey, s.ownerID); err != nil {
			slog.Info(err.Error())
		}
	}()

	posted, err := s.posts.ListPostedSince(ctx, time.Now().Add(-s.lookback))
	if err != nil {
		return 0, err
	}

	collected := 0
	for _, post := range posted {
		creds, err := s.accounts.ResolveBySlot(ctx, post.AccountSlot)
		if err != nil || creds == nil {
			continue
		}

		m, err := s.client.ContentMetrics(ctx, post.PlatformPostID, creds)
		if err != nil {
			slog.Info(err.Error())
			continue
		}

		record := models.PostMetrics{
			PostID:         post.ID,
			PlatformPostID: post.PlatformPostID,
			Likes:          m.Likes,
			Reposts:        m.Reposts,
			Replies:        m.Replies,
		}
		if _, err := s.metrics.Create(ctx, &record); err != nil {
			slog.Info(err.Error())
			continue
		}
		collected++
	}

	return collected, nil
}
