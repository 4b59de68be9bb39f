package transfer

type PostCreation struct {
	AccountSlot   string   `json:"account_slot"`
	Text          string   `json:"text"`
	SourceURL     string   `json:"source_url"`
	MediaRefs     []string `json:"media_refs"`
	CommunityID   string   `json:"community_id"`
	ReplyToID     string   `json:"reply_to_id"`
	ScheduledTime string   `json:"scheduled_time"`
}

type ThreadSegment struct {
	Text      string   `json:"text"`
	MediaRefs []string `json:"media_refs"`
}

type ThreadCreation struct {
	AccountSlot   string          `json:"account_slot"`
	Segments      []ThreadSegment `json:"segments"`
	ScheduledTime string          `json:"scheduled_time"`
}
