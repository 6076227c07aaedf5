package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Mongo      MongoConfig
	Auth       AuthConfig
	Facebook   FacebookConfig
	Cloudinary CloudinaryConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Site       SiteConfig
	Jobs       JobsConfig
	LogDir     string
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxUploadBytes int64
}

type MongoConfig struct {
	URI      string
	Database string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// FacebookConfig holds the Page credentials for the selected deployment mode.
type FacebookConfig struct {
	Mode         string
	PageID       string
	AccessToken  string
	AppSecret    string
	GraphVersion string
	BaseURL      string
	Timeout      time.Duration
}

type CloudinaryConfig struct {
	URL       string
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type RedisConfig struct {
	Addr string
	TTL  time.Duration
}

type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
}

type SiteConfig struct {
	PublicBaseURL string
}

// JobsConfig holds cron expressions for the background jobs. An empty
// expression disables that job.
type JobsConfig struct {
	CacheWarmCron  string
	SyncReportCron string
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

func (c CloudinaryConfig) Configured() bool {
	return c.URL != "" || (c.CloudName != "" && c.APIKey != "" && c.APISecret != "")
}

func Load() *Config {
	mode := strings.ToUpper(getEnv("FACEBOOK_MODE", "dev"))

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvList("CORS_ORIGIN"),
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   60 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
		},
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGO_URI"),
			Database: getEnv("MONGO_DB", "aggies_attic"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
		},
		Facebook: FacebookConfig{
			Mode:         mode,
			PageID:       os.Getenv("FACEBOOK_PAGE_ID_" + mode),
			AccessToken:  os.Getenv("FACEBOOK_PAGE_ACCESS_TOKEN_" + mode),
			AppSecret:    os.Getenv("FACEBOOK_APP_SECRET"),
			GraphVersion: getEnv("FACEBOOK_GRAPH_VERSION", "v24.0"),
			BaseURL:      getEnv("FACEBOOK_GRAPH_URL", "https://graph.facebook.com"),
			Timeout:      time.Duration(getEnvInt("FACEBOOK_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Cloudinary: CloudinaryConfig{
			URL:       os.Getenv("CLOUDINARY_URL"),
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    os.Getenv("CLOUDINARY_FOLDER"),
		},
		Redis: RedisConfig{
			Addr: os.Getenv("REDIS_ADDR"),
			TTL:  time.Duration(getEnvInt("CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:     getEnvList("KAFKA_ADDR"),
			TopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "aggies"),
		},
		Site: SiteConfig{
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_SITE_URL", "https://aggiesattic.org"), "/"),
		},
		Jobs: JobsConfig{
			CacheWarmCron:  getEnvAllowEmpty("CACHE_WARM_CRON", "*/5 * * * *"),
			SyncReportCron: getEnvAllowEmpty("SYNC_REPORT_CRON", "0 8 * * *"),
		},
		LogDir: getEnv("LOG_DIR", "logs"),
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string
	if c.Mongo.URI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_TTL_HOURS must be positive")
	}
	return nil
}

// FacebookWarnings lists the Facebook settings that are unset. Posting still
// gets attempted and fails with a configuration error, which ends up as the
// entity's lastError.
func (c *Config) FacebookWarnings() []string {
	var w []string
	if c.Facebook.PageID == "" {
		w = append(w, "FACEBOOK_PAGE_ID_"+c.Facebook.Mode)
	}
	if c.Facebook.AccessToken == "" {
		w = append(w, "FACEBOOK_PAGE_ACCESS_TOKEN_"+c.Facebook.Mode)
	}
	if c.Facebook.AppSecret == "" {
		w = append(w, "FACEBOOK_APP_SECRET")
	}
	return w
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty is getEnv, except that a variable set to "" stays empty.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
