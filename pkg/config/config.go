package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is loaded once at startup and handed to constructors. It is never
// mutated afterwards; a different configuration means building new clients.
type Config struct {
	Env     string
	Port    int
	BaseURL string

	API         APIConfig
	Feed        FeedConfig
	Cache       CacheConfig
	Redis       RedisConfig
	Analytics   AnalyticsConfig
	Tracing     TracingConfig
	Submissions SubmissionsConfig
	CORS        CORSConfig
	Log         LogConfig
}

// APIConfig describes the remote data API the front-end consumes.
type APIConfig struct {
	URL                string
	Token              string
	Timeout            time.Duration
	MaxRetries         int
	RateLimit          float64
	RateBurst          int
	PostingsCollection string
	ReportsCollection  string
}

// FeedConfig tunes listing pagination and search-as-you-type behaviour.
type FeedConfig struct {
	PageSize         int
	MinQueryLength   int
	Debounce         time.Duration
	SuggestionsLimit int
	RelatedLimit     int
}

// CacheConfig toggles the Redis read-through cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AnalyticsConfig governs page-view event publishing.
type AnalyticsConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
	Workers int
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	SampleRatio float64
}

// SubmissionsConfig rate limits form submissions per client.
type SubmissionsConfig struct {
	RateLimit float64
	RateBurst int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.BaseURL = strings.TrimRight(v.GetString("BASE_URL"), "/")

	cfg.API = APIConfig{
		URL:                strings.TrimRight(v.GetString("API_URL"), "/"),
		Token:              v.GetString("API_TOKEN"),
		Timeout:            parseDuration(v.GetString("API_TIMEOUT"), 10*time.Second),
		MaxRetries:         v.GetInt("API_MAX_RETRIES"),
		RateLimit:          v.GetFloat64("API_RATE_LIMIT"),
		RateBurst:          v.GetInt("API_RATE_BURST"),
		PostingsCollection: v.GetString("POSTINGS_COLLECTION"),
		ReportsCollection:  v.GetString("REPORTS_COLLECTION"),
	}

	cfg.Feed = FeedConfig{
		PageSize:         v.GetInt("FEED_PAGE_SIZE"),
		MinQueryLength:   v.GetInt("FEED_MIN_QUERY_LENGTH"),
		Debounce:         parseDuration(v.GetString("FEED_DEBOUNCE"), 300*time.Millisecond),
		SuggestionsLimit: v.GetInt("SUGGESTIONS_LIMIT"),
		RelatedLimit:     v.GetInt("RELATED_LIMIT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 2*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Analytics = AnalyticsConfig{
		Enabled: v.GetBool("ENABLE_ANALYTICS"),
		Brokers: splitAndTrim(v.GetString("KAFKA_BROKERS")),
		Topic:   v.GetString("ANALYTICS_TOPIC"),
		Workers: v.GetInt("ANALYTICS_WORKERS"),
	}

	cfg.Tracing = TracingConfig{
		Enabled:     v.GetBool("ENABLE_TRACING"),
		Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName: v.GetString("OTEL_SERVICE_NAME"),
		SampleRatio: v.GetFloat64("OTEL_SAMPLE_RATIO"),
	}

	cfg.Submissions = SubmissionsConfig{
		RateLimit: v.GetFloat64("SUBMIT_RATE_LIMIT"),
		RateBurst: v.GetInt("SUBMIT_RATE_BURST"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

// Validate reports settings the process cannot start without.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return errors.New("API_URL is required")
	}
	if c.Feed.PageSize <= 0 {
		return errors.New("FEED_PAGE_SIZE must be positive")
	}
	if c.Analytics.Enabled && len(c.Analytics.Brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when analytics is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("BASE_URL", "http://localhost:8080")

	v.SetDefault("API_URL", "")
	v.SetDefault("API_TOKEN", "")
	v.SetDefault("API_TIMEOUT", "10s")
	v.SetDefault("API_MAX_RETRIES", 2)
	v.SetDefault("API_RATE_LIMIT", 20)
	v.SetDefault("API_RATE_BURST", 40)
	v.SetDefault("POSTINGS_COLLECTION", "thesurve_postings")
	v.SetDefault("REPORTS_COLLECTION", "thesurve_reports")

	v.SetDefault("FEED_PAGE_SIZE", 10)
	v.SetDefault("FEED_MIN_QUERY_LENGTH", 3)
	v.SetDefault("FEED_DEBOUNCE", "300ms")
	v.SetDefault("SUGGESTIONS_LIMIT", 5)
	v.SetDefault("RELATED_LIMIT", 3)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "2m")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_ANALYTICS", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ANALYTICS_TOPIC", "thesurve.page_views")
	v.SetDefault("ANALYTICS_WORKERS", 1)

	v.SetDefault("ENABLE_TRACING", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("OTEL_SERVICE_NAME", "thesurve-web")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)

	v.SetDefault("SUBMIT_RATE_LIMIT", 0.2)
	v.SetDefault("SUBMIT_RATE_BURST", 3)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
