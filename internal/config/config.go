package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"
)

// Config holds all process-wide settings. It is loaded once at startup and
// never mutated afterwards.
type Config struct {
	Port     string
	DBPath   string
	ThumbDir string
	LogLevel string

	// SessionKey signs and verifies session tokens. Loaded from the
	// EVENTDESK_SESSION_KEY environment variable (hex-encoded).
	SessionKey []byte

	Backup BackupConfig
}

// BackupConfig holds the optional encrypted-backup settings. Backups are
// disabled unless bucket, access key, secret key, and passphrase are all set.
type BackupConfig struct {
	S3Endpoint string
	S3Bucket   string
	S3Region   string
	AccessKey  string
	SecretKey  string
	Passphrase string
	Interval   time.Duration
}

// Enabled reports whether enough settings are present to run backups.
func (b BackupConfig) Enabled() bool {
	return b.S3Bucket != "" && b.AccessKey != "" && b.SecretKey != "" && b.Passphrase != ""
}

// FromEnv loads configuration from the environment. A missing or malformed
// session key is an error; the caller is expected to treat it as fatal.
func FromEnv() (*Config, error) {
	keyHex := os.Getenv("EVENTDESK_SESSION_KEY")
	if keyHex == "" {
		return nil, fmt.Errorf("EVENTDESK_SESSION_KEY is required")
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decode EVENTDESK_SESSION_KEY: %w", err)
	}

	cfg := &Config{
		Port:       envOr("EVENTDESK_PORT", "8080"),
		DBPath:     envOr("EVENTDESK_DB_PATH", "eventdesk.db"),
		ThumbDir:   envOr("EVENTDESK_THUMB_DIR", "store/event/thumb"),
		LogLevel:   envOr("EVENTDESK_LOG_LEVEL", "info"),
		SessionKey: key,
		Backup: BackupConfig{
			S3Endpoint: os.Getenv("EVENTDESK_BACKUP_S3_ENDPOINT"),
			S3Bucket:   os.Getenv("EVENTDESK_BACKUP_S3_BUCKET"),
			S3Region:   envOr("EVENTDESK_BACKUP_S3_REGION", "auto"),
			AccessKey:  os.Getenv("EVENTDESK_BACKUP_S3_ACCESS_KEY"),
			SecretKey:  os.Getenv("EVENTDESK_BACKUP_S3_SECRET_KEY"),
			Passphrase: os.Getenv("EVENTDESK_BACKUP_PASSPHRASE"),
			Interval:   24 * time.Hour,
		},
	}

	if s := os.Getenv("EVENTDESK_BACKUP_INTERVAL"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("parse EVENTDESK_BACKUP_INTERVAL: %w", err)
		}
		cfg.Backup.Interval = d
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
