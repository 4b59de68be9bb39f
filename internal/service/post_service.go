package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/transfer"
	"github.com/postpilothq/postpilot/pkg/dedupe"
)

const scheduledTimeLayout = "2006-01-02T15:04"

// ErrDuplicateContent is returned when a post with the same dedupe key is
// already waiting in scheduled status for the same account.
var ErrDuplicateContent = errors.New("near-identical content is already scheduled for this account")

type PostService interface {
	CreatePost(ctx context.Context, pc *transfer.PostCreation) (int64, error)
	CreateThread(ctx context.Context, tc *transfer.ThreadCreation) ([]int64, error)
	List(ctx context.Context, accountSlot string) ([]*models.ScheduledPost, error)
	PostInfo(ctx context.Context, postID int64) (*models.ScheduledPost, error)
	Cancel(ctx context.Context, postID int64) error
	BackfillDedupeKeys(ctx context.Context, limit int) (int, error)
}

type postService struct {
	db *sql.DB
	pr repository.ScheduledPostRepository
}

func NewPostService(db *sql.DB, pr repository.ScheduledPostRepository) PostService {
	return &postService{db: db, pr: pr}
}

func (s *postService) CreatePost(ctx context.Context, pc *transfer.PostCreation) (int64, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, err
	}
	if pc.AccountSlot == "" {
		err := errors.New("account slot cannot be empty")
		slog.Info(err.Error())
		return 0, err
	}
	if pc.Text == "" {
		err := errors.New("text cannot be empty")
		slog.Info(err.Error())
		return 0, err
	}

	scheduledTime, err := time.Parse(scheduledTimeLayout, pc.ScheduledTime)
	if err != nil {
		err = fmt.Errorf("invalid scheduled time format: %w", err)
		slog.Error(err.Error())
		return 0, err
	}

	sourceURL := pc.SourceURL
	if sourceURL == "" {
		sourceURL = dedupe.ExtractFirstURL(pc.Text)
	}
	dedupeKey := dedupe.ComputeDedupeKey(pc.AccountSlot, dedupe.CanonicalizeURL(sourceURL), dedupe.NormalizeCopy(pc.Text))

	exists, err := s.pr.ExistsScheduledByDedupeKey(ctx, pc.AccountSlot, dedupeKey)
	if err != nil {
		return 0, err
	}
	if exists {
		slog.Info(ErrDuplicateContent.Error())
		return 0, ErrDuplicateContent
	}

	post := models.ScheduledPost{
		AccountSlot:   pc.AccountSlot,
		Text:          pc.Text,
		SourceURL:     sourceURL,
		DedupeKey:     dedupeKey,
		MediaRefs:     pc.MediaRefs,
		CommunityID:   pc.CommunityID,
		ReplyToID:     pc.ReplyToID,
		ScheduledTime: scheduledTime,
	}

	return s.pr.Create(ctx, nil, &post)
}

// CreateThread stores every segment of a thread inside one transaction so
// a partially created chain never reaches the scheduler. Indexes form the
// dependency chain the scheduler follows, starting at 0.
func (s *postService) CreateThread(ctx context.Context, tc *transfer.ThreadCreation) (ids []int64, err error) {
	if tc == nil || len(tc.Segments) == 0 {
		err = errors.New("thread needs at least one segment")
		slog.Info(err.Error())
		return nil, err
	}
	if tc.AccountSlot == "" {
		err = errors.New("account slot cannot be empty")
		slog.Info(err.Error())
		return nil, err
	}

	scheduledTime, err := time.Parse(scheduledTimeLayout, tc.ScheduledTime)
	if err != nil {
		err = fmt.Errorf("invalid scheduled time format: %w", err)
		slog.Error(err.Error())
		return nil, err
	}

	threadID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	for i, segment := range tc.Segments {
		if segment.Text == "" {
			err = fmt.Errorf("thread segment %d has empty text", i)
			return nil, err
		}

		post := models.ScheduledPost{
			AccountSlot:   tc.AccountSlot,
			Text:          segment.Text,
			SourceURL:     dedupe.ExtractFirstURL(segment.Text),
			DedupeKey:     dedupe.KeyForPost(tc.AccountSlot, segment.Text),
			ThreadID:      threadID,
			ThreadIndex:   i,
			MediaRefs:     segment.MediaRefs,
			ScheduledTime: scheduledTime,
		}

		var id int64
		id, err = s.pr.Create(ctx, tx, &post)
		if err != nil {
			return nil, fmt.Errorf("error creating thread segment %d: %w", i, err)
		}
		ids = append(ids, id)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ids, nil
}

func (s *postService) List(ctx context.Context, accountSlot string) ([]*models.ScheduledPost, error) {
	posts, err := s.pr.ListBySlot(ctx, accountSlot)
	if err != nil {
		return nil, fmt.Errorf("error listing posts")
	}
	return posts, nil
}

func (s *postService) PostInfo(ctx context.Context, postID int64) (*models.ScheduledPost, error) {
	if postID == 0 {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info")
	}
	if post == nil {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (s *postService) Cancel(ctx context.Context, postID int64) error {
	if postID == 0 {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return err
	}

	cancelled, err := s.pr.Cancel(ctx, postID)
	if err != nil {
		return fmt.Errorf("error cancelling post")
	}
	if !cancelled {
		err = errors.New("post is not in scheduled status")
		slog.Info(err.Error())
		return err
	}
	return nil
}

// BackfillDedupeKeys retrofits dedupe keys onto rows created before the
// fingerprinting scheme existed. Returns the number of rows updated.
func (s *postService) BackfillDedupeKeys(ctx context.Context, limit int) (int, error) {
	posts, err := s.pr.ListMissingDedupeKey(ctx, limit)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, post := range posts {
		key := dedupe.KeyForPost(post.AccountSlot, post.Text)
		if err := s.pr.UpdateDedupeKey(ctx, post.ID, key); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
