package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
)

// Hand-written fakes for the repository interfaces the service tests need.

type fakePolicyConfigRepo struct {
	cfg *models.PolicyConfig
	err error
}

func (f *fakePolicyConfigRepo) GetBySlot(ctx context.Context, accountSlot string) (*models.PolicyConfig, error) {
	return f.cfg, f.err
}

func (f *fakePolicyConfigRepo) Upsert(ctx context.Context, cfg *models.PolicyConfig) error {
	f.cfg = cfg
	return nil
}

type fakePostRepo struct {
	posts      []*models.ScheduledPost
	postCount  int
	dedupeHit  bool
	created    []*models.ScheduledPost
	failedIDs  map[int64]string
	postedIDs  map[int64]string
	cancelled  map[int64]string
	cancelOK   bool
	missingKey []*models.ScheduledPost
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		failedIDs: make(map[int64]string),
		postedIDs: make(map[int64]string),
		cancelled: make(map[int64]string),
	}
}

func (f *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) (int64, error) {
	f.created = append(f.created, post)
	return int64(len(f.created)), nil
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	for _, p := range f.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePostRepo) ListBySlot(ctx context.Context, accountSlot string) ([]*models.ScheduledPost, error) {
	return f.posts, nil
}

func (f *fakePostRepo) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	return f.posts, nil
}

func (f *fakePostRepo) GetThreadSibling(ctx context.Context, threadID string, threadIndex int) (*models.ScheduledPost, error) {
	for _, p := range f.posts {
		if p.ThreadID == threadID && p.ThreadIndex == threadIndex {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePostRepo) ExistsScheduledByDedupeKey(ctx context.Context, accountSlot, dedupeKey string) (bool, error) {
	return f.dedupeHit, nil
}

func (f *fakePostRepo) MarkPosted(ctx context.Context, id int64, platformPostID string) error {
	f.postedIDs[id] = platformPostID
	return nil
}

func (f *fakePostRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	f.failedIDs[id] = errorMessage
	return nil
}

func (f *fakePostRepo) MarkCancelled(ctx context.Context, id int64, errorMessage string) error {
	f.cancelled[id] = errorMessage
	return nil
}

func (f *fakePostRepo) Cancel(ctx context.Context, id int64) (bool, error) {
	return f.cancelOK, nil
}

func (f *fakePostRepo) CountActivitySince(ctx context.Context, accountSlot string, since time.Time) (int, error) {
	return f.postCount, nil
}

func (f *fakePostRepo) ListPostedSince(ctx context.Context, since time.Time) ([]*models.ScheduledPost, error) {
	return f.posts, nil
}

func (f *fakePostRepo) ListMissingDedupeKey(ctx context.Context, limit int) ([]*models.ScheduledPost, error) {
	return f.missingKey, nil
}

func (f *fakePostRepo) UpdateDedupeKey(ctx context.Context, id int64, dedupeKey string) error {
	for _, p := range f.missingKey {
		if p.ID == id {
			p.DedupeKey = dedupeKey
		}
	}
	return nil
}

type fakeActionRepo struct {
	actions     []*models.ScheduledAction
	actionCount int
	lastExclude int64
	completed   map[int64]string
	failed      map[int64]string
	cancelOK    bool
}

func newFakeActionRepo() *fakeActionRepo {
	return &fakeActionRepo{
		completed: make(map[int64]string),
		failed:    make(map[int64]string),
	}
}

func (f *fakeActionRepo) Create(ctx context.Context, action *models.ScheduledAction) (int64, error) {
	f.actions = append(f.actions, action)
	return int64(len(f.actions)), nil
}

func (f *fakeActionRepo) GetByID(ctx context.Context, id int64) (*models.ScheduledAction, error) {
	for _, a := range f.actions {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeActionRepo) ListBySlot(ctx context.Context, accountSlot string) ([]*models.ScheduledAction, error) {
	return f.actions, nil
}

func (f *fakeActionRepo) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledAction, error) {
	return f.actions, nil
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
	return f.cancelOK, nil
}

func (f *fakeActionRepo) CountActivitySince(ctx context.Context, accountSlot string, actionTypes []string, since time.Time, excludeID int64) (int, error) {
	f.lastExclude = excludeID
	return f.actionCount, nil
}

type fakeIdempotencyRepo struct {
	records map[string]*models.IdempotencyRecord
	sweeps  int
}

func newFakeIdempotencyRepo() *fakeIdempotencyRepo {
	return &fakeIdempotencyRepo{records: make(map[string]*models.IdempotencyRecord)}
}

func (f *fakeIdempotencyRepo) Get(ctx context.Context, scope, key string) (*models.IdempotencyRecord, error) {
	return f.records[scope+"|"+key], nil
}

func (f *fakeIdempotencyRepo) Create(ctx context.Context, record *models.IdempotencyRecord) error {
	k := record.Scope + "|" + record.Key
	if _, ok := f.records[k]; ok {
		return nil
	}
	record.ID = int64(len(f.records) + 1)
	f.records[k] = record
	return nil
}

func (f *fakeIdempotencyRepo) Delete(ctx context.Context, id int64) error {
	for k, rec := range f.records {
		if rec.ID == id {
			delete(f.records, k)
		}
	}
	return nil
}

func (f *fakeIdempotencyRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	f.sweeps++
	for k, rec := range f.records {
		if now.After(rec.ExpiresAt) {
			delete(f.records, k)
		}
	}
	return nil
}
