package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the CBT API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	JWTSecret              string
	SessionTTL             time.Duration
	MonitorCacheTTL        time.Duration
	PresenceWindow         time.Duration
	SubmissionGrace        time.Duration
	SweepInterval          time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxMB            int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CBT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "CBT API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("monitor.cache_ttl", "5s")
	v.SetDefault("presence.window", "5m")
	v.SetDefault("submission.grace", "30s")
	v.SetDefault("sweep.interval", "30s")
	v.SetDefault("cloudinary.folder", "cbt/questions")
	v.SetDefault("upload.max_mb", 5)

	sessionTTL, err := parseDuration(v, "session.ttl", 24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid session ttl: %w", err)
	}

	monitorTTL, err := parseDuration(v, "monitor.cache_ttl", 5*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid monitor cache ttl: %w", err)
	}

	presenceWindow, err := parseDuration(v, "presence.window", 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid presence window: %w", err)
	}

	grace, err := parseDuration(v, "submission.grace", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid submission grace: %w", err)
	}

	sweepInterval, err := parseDuration(v, "sweep.interval", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid sweep interval: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		SessionTTL:             sessionTTL,
		MonitorCacheTTL:        monitorTTL,
		PresenceWindow:         presenceWindow,
		SubmissionGrace:        grace,
		SweepInterval:          sweepInterval,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxMB:            v.GetInt("upload.max_mb"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		return fallback, nil
	}

	return time.ParseDuration(raw)
}
