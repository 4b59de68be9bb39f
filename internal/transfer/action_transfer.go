package transfer

type ActionCreation struct {
	AccountSlot   string            `json:"account_slot"`
	ActionType    string            `json:"action_type"`
	TargetID      string            `json:"target_id"`
	Payload       map[string]string `json:"payload"`
	ScheduledTime string            `json:"scheduled_time"`
}
