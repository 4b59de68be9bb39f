package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platform"
	"github.com/postpilothq/postpilot/internal/service"
	"github.com/postpilothq/postpilot/internal/transfer"
)

type fakeLockRepo struct {
	acquired bool
	released []string
}

func (f *fakeLockRepo) Acquire(ctx context.Context, lockKey, ownerID string, leaseSeconds int64) (bool, error) {
	return f.acquired, nil
}

func (f *fakeLockRepo) Release(ctx context.Context, lockKey, ownerID string) error {
	f.released = append(f.released, lockKey)
	return nil
}

type fakePostRepo struct {
	due       []*models.ScheduledPost
	siblings  map[string]*models.ScheduledPost
	posted    map[int64]string
	failed    map[int64]string
	cancelled map[int64]string
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		siblings:  make(map[string]*models.ScheduledPost),
		posted:    make(map[int64]string),
		failed:    make(map[int64]string),
		cancelled: make(map[int64]string),
	}
}

func siblingKey(threadID string, index int) string {
	return threadCacheKey(threadID, index)
}

func (f *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	return nil, nil
}

func (f *fakePostRepo) ListBySlot(ctx context.Context, accountSlot string) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (f *fakePostRepo) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	return f.due, nil
}

func (f *fakePostRepo) GetThreadSibling(ctx context.Context, threadID string, threadIndex int) (*models.ScheduledPost, error) {
	return f.siblings[siblingKey(threadID, threadIndex)], nil
}

func (f *fakePostRepo) ExistsScheduledByDedupeKey(ctx context.Context, accountSlot, dedupeKey string) (bool, error) {
	return false, nil
}

func (f *fakePostRepo) MarkPosted(ctx context.Context, id int64, platformPostID string) error {
	f.posted[id] = platformPostID
	return nil
}

func (f *fakePostRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	f.failed[id] = errorMessage
	return nil
}

func (f *fakePostRepo) MarkCancelled(ctx context.Context, id int64, errorMessage string) error {
	f.cancelled[id] = errorMessage
	return nil
}

func (f *fakePostRepo) Cancel(ctx context.Context, id int64) (bool, error) {
	return false, nil
}

func (f *fakePostRepo) CountActivitySince(ctx context.Context, accountSlot string, since time.Time) (int, error) {
	return 0, nil
}

func (f *fakePostRepo) ListPostedSince(ctx context.Context, since time.Time) ([]*models.ScheduledPost, error) {
	return f.due, nil
}

func (f *fakePostRepo) ListMissingDedupeKey(ctx context.Context, limit int) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (f *fakePostRepo) UpdateDedupeKey(ctx context.Context, id int64, dedupeKey string) error {
	return nil
}

type fakeActionRepo struct {
	due       []*models.ScheduledAction
	completed map[int64]string
	failed    map[int64]string
}

func newFakeActionRepo() *fakeActionRepo {
	return &fakeActionRepo{
		completed: make(map[int64]string),
		failed:    make(map[int64]string),
	}
}

func (f *fakeActionRepo) Create(ctx context.Context, action *models.ScheduledAction) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeActionRepo) GetByID(ctx context.Context, id int64) (*models.ScheduledAction, error) {
	return nil, nil
}

func (f *fakeActionRepo) ListBySlot(ctx context.Context, accountSlot string) ([]*models.ScheduledAction, error) {
	return nil, nil
}

func (f *fakeActionRepo) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledAction, error) {
	return f.due, nil
}

func (f *fakeActionRepo) MarkCompleted(ctx context.Context, id int64, result string) error {
	f.completed[id] = result
	return nil
}

func (f *fakeActionRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	f.failed[id] = errorMessage
	return nil
}

func (f *fakeActionRepo) Cancel(ctx context.Context, id int64) (bool, error) {
	return false, nil
}

func (f *fakeActionRepo) CountActivitySince(ctx context.Context, accountSlot string, actionTypes []string, since time.Time, excludeID int64) (int, error) {
	return 0, nil
}

type fakeEngagementRepo struct {
	records []*models.EngagementAction
}

func (f *fakeEngagementRepo) Create(ctx context.Context, action *models.EngagementAction) (int64, error) {
	f.records = append(f.records, action)
	return int64(len(f.records)), nil
}

func (f *fakeEngagementRepo) ListBySlot(ctx context.Context, accountSlot string, limit int) ([]*models.EngagementAction, error) {
	return f.records, nil
}

type fakeAccountService struct {
	creds map[string]*platform.Credentials
	err   error
}

func (f *fakeAccountService) ResolveBySlot(ctx context.Context, accountSlot string) (*platform.Credentials, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.creds[accountSlot], nil
}

func (f *fakeAccountService) HasConnectedAccounts(ctx context.Context) (bool, error) {
	return len(f.creds) > 0, nil
}

func (f *fakeAccountService) Connect(ctx context.Context, ac *transfer.AccountConnect) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeAccountService) Disconnect(ctx context.Context, accountSlot string) error {
	return errors.New("not implemented")
}

type fakePolicyService struct {
	decision  *service.PolicyDecision
	err       error
	lastCheck *service.PolicyCheck
}

func (f *fakePolicyService) CheckPolicy(ctx context.Context, check *service.PolicyCheck) (*service.PolicyDecision, error) {
	f.lastCheck = check
	if f.err != nil {
		return nil, f.err
	}
	if f.decision != nil {
		return f.decision, nil
	}
	return &service.PolicyDecision{Allowed: true}, nil
}

type fakeMediaFetcher struct {
	files map[string][]byte
}

func (f *fakeMediaFetcher) Download(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.files[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type platformCall struct {
	method string
	text   string
	target string
}

type fakePlatformClient struct {
	calls      []platformCall
	postResult *platform.PostResult
	postErr    error
	actionErr  error
	metrics    *platform.Metrics
	nextID     int
}

func (f *fakePlatformClient) PostContent(ctx context.Context, text string, creds *platform.Credentials, mediaIDs []string, communityID, replyToID string) (*platform.PostResult, error) {
	f.calls = append(f.calls, platformCall{method: "post", text: text, target: replyToID})
	if f.postErr != nil {
		return nil, f.postErr
	}
	if f.postResult != nil {
		return f.postResult, nil
	}
	f.nextID++
	return &platform.PostResult{Data: &platform.PostData{ID: postID(f.nextID), Text: text}}, nil
}

func (f *fakePlatformClient) UploadMedia(ctx context.Context, data []byte, creds *platform.Credentials) (string, error) {
	f.calls = append(f.calls, platformCall{method: "upload"})
	return "media-1", nil
}

func (f *fakePlatformClient) SendDirectMessage(ctx context.Context, recipientID, text string, creds *platform.Credentials) error {
	f.calls = append(f.calls, platformCall{method: "dm", text: text, target: recipientID})
	return f.actionErr
}

func (f *fakePlatformClient) LikeContent(ctx context.Context, targetID string, creds *platform.Credentials) error {
	f.calls = append(f.calls, platformCall{method: "like", target: targetID})
	return f.actionErr
}

func (f *fakePlatformClient) RepostContent(ctx context.Context, targetID string, creds *platform.Credentials) error {
	f.calls = append(f.calls, platformCall{method: "repost", target: targetID})
	return f.actionErr
}

func (f *fakePlatformClient) ContentMetrics(ctx context.Context, platformPostID string, creds *platform.Credentials) (*platform.Metrics, error) {
	f.calls = append(f.calls, platformCall{method: "metrics", target: platformPostID})
	if f.metrics != nil {
		return f.metrics, nil
	}
	return &platform.Metrics{}, nil
}

func postID(n int) string {
	return fmt.Sprintf("pid-%d", n)
}
