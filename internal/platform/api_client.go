package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	defaultBaseURL   = "https://api.x.com"
	defaultUploadURL = "https://upload.x.com"
)

// APIClient talks to the platform's v2 REST API with bearer credentials.
type APIClient struct {
	baseURL    string
	uploadURL  string
	httpClient *http.Client
}

func NewAPIClient() *APIClient {
	return &APIClient{
		baseURL:   defaultBaseURL,
		uploadURL: defaultUploadURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// NewAPIClientWithBase is used in tests to point the client at a stub server.
func NewAPIClientWithBase(baseURL, uploadURL string) *APIClient {
	c := NewAPIClient()
	c.baseURL = baseURL
	c.uploadURL = uploadURL
	return c
}

func (c *APIClient) do(ctx context.Context, method, url string, body io.Reader, contentType string, creds *Credentials) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return respBody, resp.StatusCode, nil
}

type postRequest struct {
	Text        string        `json:"text"`
	Reply       *replyTarget  `json:"reply,omitempty"`
	Media       *mediaPayload `json:"media,omitempty"`
	CommunityID string        `json:"community_id,omitempty"`
}

type replyTarget struct {
	InReplyToID string `json:"in_reply_to_tweet_id"`
}

type mediaPayload struct {
	MediaIDs []string `json:"media_ids"`
}

func (c *APIClient) PostContent(ctx context.Context, text string, creds *Credentials, mediaIDs []string, communityID, replyToID string) (*PostResult, error) {
	payload := postRequest{Text: text, CommunityID: communityID}
	if replyToID != "" {
		payload.Reply = &replyTarget{InReplyToID: replyToID}
	}
	if len(mediaIDs) > 0 {
		payload.Media = &mediaPayload{MediaIDs: mediaIDs}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	respBody, status, err := c.do(ctx, http.MethodPost, c.baseURL+"/2/tweets", bytes.NewReader(body), "application/json", creds)
	if err != nil {
		return nil, err
	}
	if status == http.StatusTooManyRequests {
		return nil, fmt.Errorf("post request failed with status 429")
	}

	var result PostResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return &PostResult{Raw: string(respBody)}, nil
	}
	result.Raw = string(respBody)
	return &result, nil
}

func (c *APIClient) UploadMedia(ctx context.Context, data []byte, creds *Credentials) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media", "media")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	respBody, status, err := c.do(ctx, http.MethodPost, c.uploadURL+"/1.1/media/upload.json", &buf, writer.FormDataContentType(), creds)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("media upload failed with status %d", status)
	}

	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	return result.MediaIDString, nil
}

func (c *APIClient) SendDirectMessage(ctx context.Context, recipientID, text string, creds *Credentials) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/2/dm_conversations/with/%s/messages", c.baseURL, recipientID)
	respBody, status, err := c.do(ctx, http.MethodPost, url, bytes.NewReader(body), "application/json", creds)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("dm request failed with status %d: %s", status, truncateBody(respBody))
	}
	return nil
}

func (c *APIClient) LikeContent(ctx context.Context, targetID string, creds *Credentials) error {
	return c.userAction(ctx, "likes", map[string]string{"tweet_id": targetID}, creds)
}

func (c *APIClient) RepostContent(ctx context.Context, targetID string, creds *Credentials) error {
	return c.userAction(ctx, "retweets", map[string]string{"tweet_id": targetID}, creds)
}

func (c *APIClient) userAction(ctx context.Context, action string, payload map[string]string, creds *Credentials) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/2/users/%s/%s", c.baseURL, creds.PlatformUserID, action)
	respBody, status, err := c.do(ctx, http.MethodPost, url, bytes.NewReader(body), "application/json", creds)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%s request failed with status %d: %s", action, status, truncateBody(respBody))
	}
	return nil
}

func (c *APIClient) ContentMetrics(ctx context.Context, platformPostID string, creds *Credentials) (*Metrics, error) {
	url := fmt.Sprintf("%s/2/tweets/%s?tweet.fields=public_metrics", c.baseURL, platformPostID)
	respBody, status, err := c.do(ctx, http.MethodGet, url, nil, "", creds)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("metrics request failed with status %d", status)
	}

	var result struct {
		Data struct {
			PublicMetrics struct {
				LikeCount    int `json:"like_count"`
				RetweetCount int `json:"retweet_count"`
				ReplyCount   int `json:"reply_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}

	return &Metrics{
		Likes:   result.Data.PublicMetrics.LikeCount,
		Reposts: result.Data.PublicMetrics.RetweetCount,
		Replies: result.Data.PublicMetrics.ReplyCount,
	}, nil
}

func truncateBody(b []byte) string {
	const max = 200
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max])
}
