// Package platform defines the boundary to the social platform API. The
// real client lives outside this service; the schedulers and the campaign
// executor only depend on this interface.
package platform

import (
	"context"
	"strings"
)

type Credentials struct {
	AccessToken    string
	AccessSecret   string
	PlatformUserID string
}

type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type PostData struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// PostResult mirrors the platform response shape: either Data is set or
// Errors is non-empty. Raw carries an excerpt of the response body for
// diagnostics when neither is usable.
type PostResult struct {
	Data   *PostData  `json:"data"`
	Errors []APIError `json:"errors"`
	Raw    string     `json:"-"`
}

type Metrics struct {
	Likes   int `json:"likes"`
	Reposts int `json:"reposts"`
	Replies int `json:"replies"`
}

type Client interface {
	PostContent(ctx context.Context, text string, creds *Credentials, mediaIDs []string, communityID, replyToID string) (*PostResult, error)
	UploadMedia(ctx context.Context, data []byte, creds *Credentials) (string, error)
	SendDirectMessage(ctx context.Context, recipientID, text string, creds *Credentials) error
	LikeContent(ctx context.Context, targetID string, creds *Credentials) error
	RepostContent(ctx context.Context, targetID string, creds *Credentials) error
	ContentMetrics(ctx context.Context, platformPostID string, creds *Credentials) (*Metrics, error)
}

// JoinErrors flattens a structured error array into one message.
func JoinErrors(errs []APIError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// IsRateLimited reports whether an error message carries a rate-limit
// signature. Detection is heuristic; callers record the classification but
// never retry automatically, since the original call may have succeeded
// server-side after a timeout.
func IsRateLimited(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "429") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests")
}
