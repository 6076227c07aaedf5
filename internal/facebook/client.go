// Package facebook posts to and deletes from a Facebook Page through the
// Graph API.
package facebook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"aggies-attic/internal/config"
)

type FeedPost struct {
	Message string
	Link    string
}

type PhotoPost struct {
	ImageURL string
	Caption  string
}

// PostResult is a created post. Raw is the Graph response body.
type PostResult struct {
	PostID string          `json:"postId"`
	Raw    json.RawMessage `json:"raw"`
}

type PostSummary struct {
	ID           string `json:"id"`
	Message      string `json:"message,omitempty"`
	CreatedTime  string `json:"created_time,omitempty"`
	PermalinkURL string `json:"permalink_url,omitempty"`
}

// Poster is the subset of the Graph API the rest of the service needs.
type Poster interface {
	PostFeedMessage(ctx context.Context, p FeedPost) (PostResult, error)
	PostPhotoByURL(ctx context.Context, p PhotoPost) (PostResult, error)
	DeletePost(ctx context.Context, postID string) error
}

// ConfigError means the Page credentials for the selected mode are
// incomplete. No request was sent.
type ConfigError struct {
	Mode    string
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing Facebook config for mode %s: %s", e.Mode, strings.Join(e.Missing, ", "))
}

// GraphError is the "error" object of a Graph API error response.
type GraphError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode,omitempty"`
	FBTraceID    string `json:"fbtrace_id,omitempty"`
}

// RemoteAPIError is any failed Graph call: a transport error (StatusCode 0)
// or a non-2xx response.
type RemoteAPIError struct {
	StatusCode int
	Payload    *GraphError
	Message    string
	Err        error
}

func (e *RemoteAPIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("facebook graph: %s", e.Message)
	}
	return fmt.Sprintf("facebook graph: %d %s", e.StatusCode, e.Message)
}

func (e *RemoteAPIError) Unwrap() error { return e.Err }

type Client struct {
	httpClient *http.Client
	cfg        config.FacebookConfig
}

func NewClient(cfg config.FacebookConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{httpClient: httpClient, cfg: cfg}
}

// AppSecretProof is hex(HMAC-SHA256(key=appSecret, msg=accessToken)).
func AppSecretProof(appSecret, accessToken string) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write([]byte(accessToken))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) checkConfig() error {
	var missing []string
	if c.cfg.PageID == "" {
		missing = append(missing, "FACEBOOK_PAGE_ID_"+c.cfg.Mode)
	}
	if c.cfg.AccessToken == "" {
		missing = append(missing, "FACEBOOK_PAGE_ACCESS_TOKEN_"+c.cfg.Mode)
	}
	if c.cfg.AppSecret == "" {
		missing = append(missing, "FACEBOOK_APP_SECRET")
	}
	if len(missing) > 0 {
		return &ConfigError{Mode: c.cfg.Mode, Missing: missing}
	}
	return nil
}

// NormalizePostID picks the feed post id out of a create response. Photo
// uploads return {id: photoId, post_id: pageId_postId}; feed posts return
// only id.
func NormalizePostID(raw json.RawMessage) string {
	var body struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.PostID != "" {
		return body.PostID
	}
	return body.ID
}

func (c *Client) PostFeedMessage(ctx context.Context, p FeedPost) (PostResult, error) {
	params := url.Values{}
	if p.Message != "" {
		params.Set("message", p.Message)
	}
	if p.Link != "" {
		params.Set("link", p.Link)
	}
	return c.create(ctx, c.cfg.PageID+"/feed", params)
}

func (c *Client) PostPhotoByURL(ctx context.Context, p PhotoPost) (PostResult, error) {
	params := url.Values{}
	params.Set("url", p.ImageURL)
	params.Set("caption", p.Caption)
	return c.create(ctx, c.cfg.PageID+"/photos", params)
}

// DeletePost is a no-op for an empty id.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	if postID == "" {
		return nil
	}
	if err := c.checkConfig(); err != nil {
		return err
	}
	_, err := c.do(ctx, http.MethodDelete, postID, url.Values{})
	return err
}

func (c *Client) ListRecentPosts(ctx context.Context, limit int) ([]PostSummary, error) {
	if err := c.checkConfig(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	raw, err := c.do(ctx, http.MethodGet, c.cfg.PageID+"/feed", params)
	if err != nil {
		return nil, err
	}
	var page struct {
		Data []PostSummary `json:"data"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, &RemoteAPIError{Message: "decode feed response", Err: err}
	}
	return page.Data, nil
}

func (c *Client) create(ctx context.Context, path string, params url.Values) (PostResult, error) {
	if err := c.checkConfig(); err != nil {
		return PostResult{}, err
	}
	raw, err := c.do(ctx, http.MethodPost, path, params)
	if err != nil {
		return PostResult{}, err
	}
	return PostResult{PostID: NormalizePostID(raw), Raw: raw}, nil
}

// do sends every parameter in the query string, as the Graph API accepts for
// all of the calls made here.
func (c *Client) do(ctx context.Context, method, path string, params url.Values) (json.RawMessage, error) {
	params.Set("access_token", c.cfg.AccessToken)
	params.Set("appsecret_proof", AppSecretProof(c.cfg.AppSecret, c.cfg.AccessToken))

	endpoint := fmt.Sprintf("%s/%s/%s?%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.GraphVersion, strings.TrimLeft(path, "/"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, &RemoteAPIError{Message: "build request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteAPIError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteAPIError{StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode >= 300 {
		apiErr := &RemoteAPIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var envelope struct {
			Error *GraphError `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
			apiErr.Payload = envelope.Error
			apiErr.Message = envelope.Error.Message
		}
		return nil, apiErr
	}
	return json.RawMessage(body), nil
}
