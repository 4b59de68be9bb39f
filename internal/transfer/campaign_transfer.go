package transfer

type CampaignCreation struct {
	Name string `json:"name"`
}

type TaskCreation struct {
	CampaignID       int64             `json:"campaign_id"`
	TaskType         string            `json:"task_type"`
	Details          map[string]string `json:"details"`
	Priority         int               `json:"priority"`
	DueAt            string            `json:"due_at"`
	RequiresApproval bool              `json:"requires_approval"`
}

type ApprovalDecision struct {
	ApprovalID int64  `json:"approval_id"`
	Approve    bool   `json:"approve"`
	Note       string `json:"note"`
}
