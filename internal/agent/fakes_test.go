package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platform"
	"github.com/postpilothq/postpilot/internal/service"
	"github.com/postpilothq/postpilot/internal/transfer"
)

type fakeCampaignRepo struct {
	campaigns map[int64]*models.Campaign
}

func (f *fakeCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeCampaignRepo) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	return f.campaigns[id], nil
}

func (f *fakeCampaignRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	return nil
}

type fakeTaskRepo struct {
	tasks    map[int64]*models.CampaignTask
	eligible []*models.CampaignTask
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[int64]*models.CampaignTask)}
}

func (f *fakeTaskRepo) Create(ctx context.Context, task *models.CampaignTask) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, id int64) (*models.CampaignTask, error) {
	return f.tasks[id], nil
}

func (f *fakeTaskRepo) ListEligible(ctx context.Context, campaignID int64, taskTypes []string, until time.Time, limit int) ([]*models.CampaignTask, error) {
	if len(f.eligible) > limit {
		return f.eligible[:limit], nil
	}
	return f.eligible, nil
}

func (f *fakeTaskRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	if task, ok := f.tasks[id]; ok {
		task.Status = status
	}
	return nil
}

func (f *fakeTaskRepo) SetApprovalID(ctx context.Context, id, approvalID int64) error {
	if task, ok := f.tasks[id]; ok {
		task.ApprovalID = approvalID
	}
	return nil
}

func (f *fakeTaskRepo) SetTerminal(ctx context.Context, id int64, status, output string) error {
	if task, ok := f.tasks[id]; ok {
		task.Status = status
		task.Output = output
	}
	return nil
}

type fakeApprovalRepo struct {
	approvals map[int64]*models.CampaignApproval
	nextID    int64
}

func newFakeApprovalRepo() *fakeApprovalRepo {
	return &fakeApprovalRepo{approvals: make(map[int64]*models.CampaignApproval)}
}

func (f *fakeApprovalRepo) Create(ctx context.Context, approval *models.CampaignApproval) (int64, error) {
	f.nextID++
	approval.ID = f.nextID
	approval.Status = models.ApprovalStatusPending
	f.approvals[f.nextID] = approval
	return f.nextID, nil
}

func (f *fakeApprovalRepo) GetByID(ctx context.Context, id int64) (*models.CampaignApproval, error) {
	return f.approvals[id], nil
}

func (f *fakeApprovalRepo) Decide(ctx context.Context, id int64, status, decisionNote string) error {
	if approval, ok := f.approvals[id]; ok {
		approval.Status = status
		approval.DecisionNote = decisionNote
	}
	return nil
}

type fakeRunRepo struct {
	runs       map[string]*models.AgentRun
	runStatus  map[string]string
	steps      []*models.AgentRunStep
	stepStatus map[int64]string
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{
		runs:       make(map[string]*models.AgentRun),
		runStatus:  make(map[string]string),
		stepStatus: make(map[int64]string),
	}
}

func (f *fakeRunRepo) CreateRun(ctx context.Context, run *models.AgentRun) error {
	f.runs[run.ID] = run
	f.runStatus[run.ID] = models.RunStatusRunning
	return nil
}

func (f *fakeRunRepo) CompleteRun(ctx context.Context, id, status, output, errorMessage string) error {
	f.runStatus[id] = status
	if run, ok := f.runs[id]; ok {
		run.Output = output
	}
	return nil
}

func (f *fakeRunRepo) CreateStep(ctx context.Context, step *models.AgentRunStep) (int64, error) {
	step.ID = int64(len(f.steps) + 1)
	f.steps = append(f.steps, step)
	f.stepStatus[step.ID] = models.StepStatusRunning
	return step.ID, nil
}

func (f *fakeRunRepo) CompleteStep(ctx context.Context, id int64, status, output, errorMessage string) error {
	f.stepStatus[id] = status
	return nil
}

func (f *fakeRunRepo) ListSteps(ctx context.Context, runID string) ([]*models.AgentRunStep, error) {
	return f.steps, nil
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
}

func (f *fakeAccountService) ResolveBySlot(ctx context.Context, accountSlot string) (*platform.Credentials, error) {
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
	decision *service.PolicyDecision
}

func (f *fakePolicyService) CheckPolicy(ctx context.Context, check *service.PolicyCheck) (*service.PolicyDecision, error) {
	if f.decision != nil {
		return f.decision, nil
	}
	return &service.PolicyDecision{Allowed: true}, nil
}

type fakePlatformClient struct {
	calls     []string
	postErr   error
	actionErr error
	nextID    int
}

func (f *fakePlatformClient) PostContent(ctx context.Context, text string, creds *platform.Credentials, mediaIDs []string, communityID, replyToID string) (*platform.PostResult, error) {
	f.calls = append(f.calls, "post")
	if f.postErr != nil {
		return nil, f.postErr
	}
	f.nextID++
	return &platform.PostResult{Data: &platform.PostData{ID: fmt.Sprintf("pid-%d", f.nextID), Text: text}}, nil
}

func (f *fakePlatformClient) UploadMedia(ctx context.Context, data []byte, creds *platform.Credentials) (string, error) {
	f.calls = append(f.calls, "upload")
	return "media-1", nil
}

func (f *fakePlatformClient) SendDirectMessage(ctx context.Context, recipientID, text string, creds *platform.Credentials) error {
	f.calls = append(f.calls, "dm")
	return f.actionErr
}

func (f *fakePlatformClient) LikeContent(ctx context.Context, targetID string, creds *platform.Credentials) error {
	f.calls = append(f.calls, "like")
	return f.actionErr
}

func (f *fakePlatformClient) RepostContent(ctx context.Context, targetID string, creds *platform.Credentials) error {
	f.calls = append(f.calls, "repost")
	return f.actionErr
}

func (f *fakePlatformClient) ContentMetrics(ctx context.Context, platformPostID string, creds *platform.Credentials) (*platform.Metrics, error) {
	f.calls = append(f.calls, "metrics")
	return &platform.Metrics{}, nil
}
