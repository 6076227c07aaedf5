package facebook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aggies-attic/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.FacebookConfig {
	return config.FacebookConfig{
		Mode:         "DEV",
		PageID:       "1234",
		AccessToken:  "page-token",
		AppSecret:    "app-secret",
		GraphVersion: "v24.0",
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
	}
}

func TestNormalizePostID(t *testing.T) {
	cases := map[string]string{
		`{"id":"123","post_id":"456_123"}`: "456_123",
		`{"id":"789"}`:                     "789",
		`{}`:                               "",
		`not json`:                         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePostID(json.RawMessage(in)), in)
	}
}

func TestAppSecretProof(t *testing.T) {
	// echo -n page-token | openssl dgst -sha256 -hmac app-secret
	proof := AppSecretProof("app-secret", "page-token")
	assert.Equal(t, "d8b448b9cc7d64c51098271805b3cc20b5b715e52bd587eb71b610259587c856", proof)
	assert.NotEqual(t, proof, AppSecretProof("other-secret", "page-token"))
}

func TestPostPhotoSendsQueryParams(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{"id":"555","post_id":"1234_555"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), srv.Client())
	res, err := c.PostPhotoByURL(context.Background(), PhotoPost{ImageURL: "https://img/a.jpg", Caption: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "1234_555", res.PostID)
	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/v24.0/1234/photos", got.URL.Path)

	q := got.URL.Query()
	assert.Equal(t, "https://img/a.jpg", q.Get("url"))
	assert.Equal(t, "hi", q.Get("caption"))
	assert.Equal(t, "page-token", q.Get("access_token"))
	assert.Equal(t, AppSecretProof("app-secret", "page-token"), q.Get("appsecret_proof"))
}

func TestGraphErrorIsDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), srv.Client())
	_, err := c.PostFeedMessage(context.Background(), FeedPost{Message: "x"})

	var apiErr *RemoteAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.NotNil(t, apiErr.Payload)
	assert.Equal(t, 190, apiErr.Payload.Code)
	assert.Equal(t, "Invalid OAuth access token.", apiErr.Message)
}

func TestMissingConfigFailsBeforeNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.AppSecret = ""
	c := NewClient(cfg, srv.Client())

	_, err := c.PostFeedMessage(context.Background(), FeedPost{Message: "x"})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"FACEBOOK_APP_SECRET"}, cfgErr.Missing)

	assert.ErrorAs(t, c.DeletePost(context.Background(), "1_2"), &cfgErr)
	_, err = c.ListRecentPosts(context.Background(), 5)
	assert.ErrorAs(t, err, &cfgErr)
	assert.Zero(t, calls)
}

func TestDeleteAndListRecent(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path+" limit="+r.URL.Query().Get("limit"))
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"data":[{"id":"1234_1","message":"hello"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), srv.Client())
	require.NoError(t, c.DeletePost(context.Background(), ""))
	require.NoError(t, c.DeletePost(context.Background(), "1234_9"))

	posts, err := c.ListRecentPosts(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "hello", posts[0].Message)

	assert.Equal(t, []string{"DELETE /v24.0/1234_9 limit=", "GET /v24.0/1234/feed limit=5"}, paths)
}
