package transfer

type AccountConnect struct {
	AccountSlot    string `json:"account_slot"`
	AccountName    string `json:"account_name"`
	PlatformUserID string `json:"platform_user_id"`
	AccessToken    string `json:"access_token"`
	AccessSecret   string `json:"access_secret"`
}
