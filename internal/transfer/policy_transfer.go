package transfer

type PolicyUpdate struct {
	AccountSlot        string `json:"account_slot"`
	MaxPostsPerDay     int    `json:"max_posts_per_day"`
	MaxRepliesPerHour  int    `json:"max_replies_per_hour"`
	MaxDmsPerDay       int    `json:"max_dms_per_day"`
	MaxLikesPerHour    int    `json:"max_likes_per_hour"`
	AllowedWindowStart int    `json:"allowed_window_start"`
	AllowedWindowEnd   int    `json:"allowed_window_end"`
	Timezone           string `json:"timezone"`
}
