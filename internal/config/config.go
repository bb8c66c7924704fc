// Package config reads process settings from MQ_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// maxWakeInterval bounds the reset and reminder loops so a day boundary or a
// reminder time is never missed by more than a minute.
const maxWakeInterval = 60 * time.Second

type Config struct {
	Port        string
	DBPath      string
	LogLevel    string
	LogFile     string
	LogJSON     bool
	Location    *time.Location
	CatalogPath string

	ResetInterval    time.Duration
	ReminderInterval time.Duration

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	S3Endpoint  string
	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string

	BackupPrefix        string
	BackupPassphrase    string
	BackupInterval      time.Duration
	BackupRetentionDays int

	AllowedOrigins []string
}

// Load builds a Config from the environment. Only malformed values are
// errors; anything unset falls back to its default.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("MQ_PORT", "8080"),
		DBPath:      getEnv("MQ_DB_PATH", "mobilityquest.db"),
		LogLevel:    getEnv("MQ_LOG_LEVEL", "info"),
		LogFile:     os.Getenv("MQ_LOG_FILE"),
		CatalogPath: os.Getenv("MQ_CATALOG_PATH"),

		VAPIDPublicKey:  os.Getenv("MQ_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("MQ_VAPID_PRIVATE_KEY"),
		VAPIDSubject:    getEnv("MQ_VAPID_SUBJECT", "mailto:admin@localhost"),

		S3Endpoint:  os.Getenv("MQ_S3_ENDPOINT"),
		S3Bucket:    os.Getenv("MQ_S3_BUCKET"),
		S3Region:    getEnv("MQ_S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("MQ_S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("MQ_S3_SECRET_KEY"),

		BackupPrefix:     getEnv("MQ_BACKUP_PREFIX", "mobilityquest"),
		BackupPassphrase: os.Getenv("MQ_BACKUP_PASSPHRASE"),

		AllowedOrigins: splitList(os.Getenv("MQ_ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.LogJSON, err = getEnvBool("MQ_LOG_JSON", false); err != nil {
		return nil, err
	}

	cfg.Location = time.Local
	if tz := os.Getenv("MQ_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("load MQ_TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	if cfg.ResetInterval, err = getEnvDuration("MQ_RESET_INTERVAL", maxWakeInterval); err != nil {
		return nil, err
	}
	cfg.ResetInterval = clampWake(cfg.ResetInterval)

	if cfg.ReminderInterval, err = getEnvDuration("MQ_REMINDER_INTERVAL", maxWakeInterval); err != nil {
		return nil, err
	}
	cfg.ReminderInterval = clampWake(cfg.ReminderInterval)

	if cfg.BackupInterval, err = getEnvDuration("MQ_BACKUP_INTERVAL", 0); err != nil {
		return nil, err
	}
	if cfg.BackupRetentionDays, err = getEnvInt("MQ_BACKUP_RETENTION_DAYS", 30); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PushEnabled reports whether both VAPID keys are configured.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

func clampWake(d time.Duration) time.Duration {
	if d <= 0 || d > maxWakeInterval {
		return maxWakeInterval
	}
	return d
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
