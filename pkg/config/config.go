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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database       DatabaseConfig
	Redis          RedisConfig
	JWT            JWTConfig
	CORS           CORSConfig
	Log            LogConfig
	Recycling      RecyclingConfig
	Alerts         AlertsConfig
	Classifier     ClassifierConfig
	Sync           SyncConfig
	ShutdownPeriod time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig describes how tokens issued by the identity provider are verified.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RecyclingConfig tunes lifecycle evaluation.
type RecyclingConfig struct {
	Timezone       string
	ReminderMonths int
}

// Location resolves the configured timezone, falling back to UTC.
func (c RecyclingConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AlertsConfig governs caching of per-holder alert lists.
type AlertsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ClassifierConfig controls batched history lookups.
type ClassifierConfig struct {
	BatchSize    int
	Concurrency  int
	BatchTimeout time.Duration
}

// SyncConfig configures the trainer relationship worker pool.
type SyncConfig struct {
	Timeout    time.Duration
	Workers    int
	QueueSize  int
	MaxRetries int
	RetryDelay time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.ShutdownPeriod = parseDuration(v.GetString("SHUTDOWN_PERIOD"), 15*time.Second)

	cfg.Database = DatabaseConfig{
		Host:            v.GetString("DB_HOST"),
		Port:            v.GetInt("DB_PORT"),
		User:            v.GetString("DB_USER"),
		Password:        v.GetString("DB_PASSWORD"),
		Name:            v.GetString("DB_NAME"),
		SSLMode:         v.GetString("DB_SSL_MODE"),
		MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: v.GetString("JWT_AUDIENCE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Recycling = RecyclingConfig{
		Timezone:       v.GetString("RECYCLING_TIMEZONE"),
		ReminderMonths: positiveOr(v.GetInt("RECYCLING_REMINDER_MONTHS"), 12),
	}

	cfg.Alerts = AlertsConfig{
		CacheEnabled: v.GetBool("ALERTS_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("ALERTS_CACHE_TTL"), time.Hour),
	}

	cfg.Classifier = ClassifierConfig{
		BatchSize:    positiveOr(v.GetInt("CLASSIFIER_BATCH_SIZE"), 200),
		Concurrency:  positiveOr(v.GetInt("CLASSIFIER_CONCURRENCY"), 4),
		BatchTimeout: parseDuration(v.GetString("CLASSIFIER_BATCH_TIMEOUT"), 10*time.Second),
	}

	cfg.Sync = SyncConfig{
		Timeout:    parseDuration(v.GetString("SYNC_TIMEOUT"), 5*time.Second),
		Workers:    positiveOr(v.GetInt("SYNC_WORKERS"), 2),
		QueueSize:  positiveOr(v.GetInt("SYNC_QUEUE_SIZE"), 256),
		MaxRetries: positiveOr(v.GetInt("SYNC_MAX_RETRIES"), 3),
		RetryDelay: parseDuration(v.GetString("SYNC_RETRY_DELAY"), 2*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("SHUTDOWN_PERIOD", "15s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lifeguard")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "authenticated")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RECYCLING_TIMEZONE", "Europe/Zurich")
	v.SetDefault("RECYCLING_REMINDER_MONTHS", 12)

	v.SetDefault("ALERTS_CACHE_ENABLED", false)
	v.SetDefault("ALERTS_CACHE_TTL", "1h")

	v.SetDefault("CLASSIFIER_BATCH_SIZE", 200)
	v.SetDefault("CLASSIFIER_CONCURRENCY", 4)
	v.SetDefault("CLASSIFIER_BATCH_TIMEOUT", "10s")

	v.SetDefault("SYNC_TIMEOUT", "5s")
	v.SetDefault("SYNC_WORKERS", 2)
	v.SetDefault("SYNC_QUEUE_SIZE", 256)
	v.SetDefault("SYNC_MAX_RETRIES", 3)
	v.SetDefault("SYNC_RETRY_DELAY", "2s")
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

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
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
