package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "")
	t.Setenv("CORS_ORIGIN", "")
	t.Setenv("FACEBOOK_MODE", "")
	t.Setenv("PUBLIC_SITE_URL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("KAFKA_ADDR", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Nil(t, cfg.Server.AllowedOrigins)
	assert.Equal(t, "aggies_attic", cfg.Mongo.Database)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "DEV", cfg.Facebook.Mode)
	assert.Equal(t, "v24.0", cfg.Facebook.GraphVersion)
	assert.Equal(t, "https://aggiesattic.org", cfg.Site.PublicBaseURL)
	assert.Equal(t, int64(20<<20), cfg.Server.MaxUploadBytes)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadSelectsFacebookCredentialsByMode(t *testing.T) {
	t.Setenv("FACEBOOK_MODE", "prod")
	t.Setenv("FACEBOOK_PAGE_ID_PROD", "page-prod")
	t.Setenv("FACEBOOK_PAGE_ACCESS_TOKEN_PROD", "token-prod")
	t.Setenv("FACEBOOK_PAGE_ID_DEV", "page-dev")
	t.Setenv("FACEBOOK_APP_SECRET", "app-secret")

	cfg := Load()

	assert.Equal(t, "PROD", cfg.Facebook.Mode)
	assert.Equal(t, "page-prod", cfg.Facebook.PageID)
	assert.Equal(t, "token-prod", cfg.Facebook.AccessToken)
	assert.Empty(t, cfg.FacebookWarnings())
}

func TestLoadParsesListsAndTrimsBaseURL(t *testing.T) {
	t.Setenv("CORS_ORIGIN", "https://a.example, https://b.example ,")
	t.Setenv("KAFKA_ADDR", "k1:9092,k2:9092")
	t.Setenv("PUBLIC_SITE_URL", "https://example.org/")

	cfg := Load()

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "https://example.org", cfg.Site.PublicBaseURL)
}

func TestValidateReportsAllMissingKeys(t *testing.T) {
	cfg := &Config{Auth: AuthConfig{TokenTTL: time.Hour}}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestFacebookWarnings(t *testing.T) {
	cfg := &Config{Facebook: FacebookConfig{Mode: "DEV"}}

	assert.ElementsMatch(t, []string{
		"FACEBOOK_PAGE_ID_DEV",
		"FACEBOOK_PAGE_ACCESS_TOKEN_DEV",
		"FACEBOOK_APP_SECRET",
	}, cfg.FacebookWarnings())
}

func TestCloudinaryConfigured(t *testing.T) {
	assert.True(t, CloudinaryConfig{URL: "cloudinary://k:s@name"}.Configured())
	assert.True(t, CloudinaryConfig{CloudName: "n", APIKey: "k", APISecret: "s"}.Configured())
	assert.False(t, CloudinaryConfig{CloudName: "n"}.Configured())
}

func TestJobSchedules(t *testing.T) {
	t.Setenv("SYNC_REPORT_CRON", "")

	cfg := Load()

	assert.Equal(t, "*/5 * * * *", cfg.Jobs.CacheWarmCron)
	assert.Empty(t, cfg.Jobs.SyncReportCron, "an explicitly empty schedule disables the job")
}
