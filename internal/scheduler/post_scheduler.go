package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platform"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/service"
)

const postCycleLockKey = "scheduler-cycle"

// itemOutcome is the three-way result of processing one due row: the item
// advanced to a terminal state, or it was deliberately left untouched for a
// later tick. "Leave it for later" is a decision, not an error.
type itemOutcome int

const (
	outcomePosted itemOutcome = iota
	outcomeFailed
	outcomeDeferred
)

// MediaFetcher retrieves stored media bytes for a media ref.
type MediaFetcher interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

type CycleResult struct {
	Skipped   bool `json:"skipped"`
	Processed int  `json:"processed"`
	Posted    int  `json:"posted"`
	Failed    int  `json:"failed"`
	Deferred  int  `json:"deferred"`
}

type PostScheduler struct {
	locks        repository.SchedulerLockRepository
	posts        repository.ScheduledPostRepository
	accounts     service.AccountService
	media        MediaFetcher
	client       platform.Client
	ownerID      string
	leaseSeconds int64
}

func NewPostScheduler(
	locks repository.SchedulerLockRepository,
	posts repository.ScheduledPostRepository,
	accounts service.AccountService,
	media MediaFetcher,
	client platform.Client,
	leaseSeconds int64) *PostScheduler {
	return &PostScheduler{
		locks:        locks,
		posts:        posts,
		accounts:     accounts,
		media:        media,
		client:       client,
		ownerID:      uuid.NewString(),
		leaseSeconds: leaseSeconds,
	}
}

// RunCycle publishes every due scheduled post it can resolve. Losing the
// lease race is a silent skip: another instance owns this tick.
func (s *PostScheduler) RunCycle(ctx context.Context) (*CycleResult, error) {
	acquired, err := s.locks.Acquire(ctx, postCycleLockKey, s.ownerID, s.leaseSeconds)
	if err != nil {
		return nil, err
	}
	if !acquired {
		slog.Info("post cycle skipped: lease held by another instance")
		return &CycleResult{Skipped: true}, nil
	}
	defer func() {
		if err := s.locks.Release(ctx, postCycleLockKey, s.ownerID); err != nil {
			slog.Info(err.Error())
		}
	}()

	hasAccounts, err := s.accounts.HasConnectedAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if !hasAccounts {
		slog.Info("post cycle skipped: no connected accounts")
		return &CycleResult{Skipped: true}, nil
	}

	due, err := s.posts.ListDue(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	result := &CycleResult{}
	// Platform ids of posts published earlier in this same cycle, keyed by
	// (threadID, threadIndex), so thread chaining avoids a redundant read.
	threadCache := make(map[string]string)

	for _, post := range due {
		result.Processed++
		switch s.processPost(ctx, post, threadCache) {
		case outcomePosted:
			result.Posted++
		case outcomeFailed:
			result.Failed++
		case outcomeDeferred:
			result.Deferred++
		}
	}

	return result, nil
}

func threadCacheKey(threadID string, threadIndex int) string {
	return fmt.Sprintf("%s:%d", threadID, threadIndex)
}

// processPost handles one due row. Every failure inside is converted to a
// terminal status write; nothing may escape and abort the cycle.
func (s *PostScheduler) processPost(ctx context.Context, post *models.ScheduledPost, threadCache map[string]string) (outcome itemOutcome) {
	defer func() {
		if p := recover(); p != nil {
			msg := fmt.Sprintf("panic while posting: %v", p)
			slog.Error(msg)
			if err := s.posts.MarkFailed(ctx, post.ID, msg); err != nil {
				slog.Info(err.Error())
			}
			outcome = outcomeFailed
		}
	}()

	creds, err := s.accounts.ResolveBySlot(ctx, post.AccountSlot)
	if err != nil {
		slog.Info(err.Error())
		return outcomeDeferred
	}
	if creds == nil {
		// Account not connected yet: leave the row for a later tick.
		return outcomeDeferred
	}

	replyToID := post.ReplyToID
	if post.ThreadID != "" && post.ThreadIndex > 0 {
		parentID, decided := s.resolveThreadParent(ctx, post, threadCache)
		if !decided {
			return outcomeDeferred
		}
		if parentID == "" {
			return outcomeFailed
		}
		replyToID = parentID
	}

	mediaIDs := s.resolveMedia(ctx, post, creds)

	res, err := s.client.PostContent(ctx, post.Text, creds, mediaIDs, post.CommunityID, replyToID)
	if err != nil {
		if markErr := s.posts.MarkFailed(ctx, post.ID, err.Error()); markErr != nil {
			slog.Info(markErr.Error())
		}
		return outcomeFailed
	}
	if len(res.Errors) > 0 {
		if markErr := s.posts.MarkFailed(ctx, post.ID, platform.JoinErrors(res.Errors)); markErr != nil {
			slog.Info(markErr.Error())
		}
		return outcomeFailed
	}
	if res.Data == nil || res.Data.ID == "" {
		msg := "post response missing id"
		if res.Raw != "" {
			msg = fmt.Sprintf("post response missing id: %s", truncate(res.Raw, 200))
		}
		if markErr := s.posts.MarkFailed(ctx, post.ID, msg); markErr != nil {
			slog.Info(markErr.Error())
		}
		return outcomeFailed
	}

	if err := s.posts.MarkPosted(ctx, post.ID, res.Data.ID); err != nil {
		slog.Info(err.Error())
		return outcomeFailed
	}
	if post.ThreadID != "" {
		threadCache[threadCacheKey(post.ThreadID, post.ThreadIndex)] = res.Data.ID
	}
	return outcomePosted
}

// resolveThreadParent finds the platform id this segment must reply to.
// Returns decided=false to defer the row, or ("", true) when the row was
// already terminalized because its ancestor failed or was cancelled.
func (s *PostScheduler) resolveThreadParent(ctx context.Context, post *models.ScheduledPost, threadCache map[string]string) (parentID string, decided bool) {
	if id, ok := threadCache[threadCacheKey(post.ThreadID, post.ThreadIndex-1)]; ok {
		return id, true
	}

	sibling, err := s.posts.GetThreadSibling(ctx, post.ThreadID, post.ThreadIndex-1)
	if err != nil {
		slog.Info(err.Error())
		return "", false
	}
	if sibling == nil {
		// Chain is incomplete; wait for the missing segment to appear.
		return "", false
	}

	switch sibling.Status {
	case models.PostStatusPosted:
		return sibling.PlatformPostID, true
	case models.PostStatusFailed, models.PostStatusCancelled:
		msg := fmt.Sprintf("cancelled: thread segment %d was %s", sibling.ThreadIndex, sibling.Status)
		if err := s.posts.MarkCancelled(ctx, post.ID, msg); err != nil {
			slog.Info(err.Error())
		}
		return "", true
	default:
		// Sibling is still pending; try again next tick.
		return "", false
	}
}

// resolveMedia uploads each referenced asset and collects the platform
// media ids. A failed individual upload is logged and omitted, never fatal
// to the whole post.
func (s *PostScheduler) resolveMedia(ctx context.Context, post *models.ScheduledPost, creds *platform.Credentials) []string {
	var mediaIDs []string
	for _, ref := range post.MediaRefs {
		data, err := s.media.Download(ctx, ref)
		if err != nil {
			slog.Info(fmt.Sprintf("media ref %s skipped: %v", ref, err))
			continue
		}
		mediaID, err := s.client.UploadMedia(ctx, data, creds)
		if err != nil || mediaID == "" {
			slog.Info(fmt.Sprintf("media ref %s upload failed: %v", ref, err))
			continue
		}
		mediaIDs = append(mediaIDs, mediaID)
	}
	return mediaIDs
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
