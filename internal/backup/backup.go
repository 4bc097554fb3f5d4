// Package backup periodically snapshots the database and uploads it,
// encrypted, to S3-compatible storage. It is optional: without credentials
// and a passphrase the manager stays disabled. Backup failures are logged,
// never fatal, and never touch the request path.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mwalcott/eventdesk/internal/config"
)

// s3Client is the slice of the S3 API the manager uses; an interface for
// testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Manager struct {
	cfg    config.BackupConfig
	db     *sql.DB
	client s3Client
	logger *slog.Logger
}

// NewManager builds a backup manager. When the configuration is incomplete
// the manager is returned disabled.
func NewManager(cfg config.BackupConfig, db *sql.DB, logger *slog.Logger) *Manager {
	m := &Manager{cfg: cfg, db: db, logger: logger}
	if cfg.Enabled() {
		m.client = newS3Client(cfg)
	}
	return m
}

func newS3Client(cfg config.BackupConfig) *s3.Client {
	opts := s3.Options{
		Region:       cfg.S3Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether the manager will actually upload anything.
func (m *Manager) Enabled() bool {
	return m.client != nil
}

// Start runs the periodic backup loop until the context is cancelled.
// A no-op when the manager is disabled.
func (m *Manager) Start(ctx context.Context) {
	if !m.Enabled() {
		m.logger.Info("backups disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.runOnce(ctx); err != nil {
					m.logger.Error("backup failed", "error", err)
				}
			}
		}
	}()
}

// runOnce snapshots the database, encrypts it, and uploads it.
func (m *Manager) runOnce(ctx context.Context) error {
	snapshot, err := m.snapshot()
	if err != nil {
		return err
	}

	encrypted, err := Encrypt(snapshot, m.cfg.Passphrase)
	if err != nil {
		return fmt.Errorf("encrypt snapshot: %w", err)
	}

	key := fmt.Sprintf("eventdesk/backup-%s.db.enc", time.Now().UTC().Format("20060102-150405"))
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.cfg.S3Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(encrypted),
	})
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}

	m.logger.Info("backup uploaded", "key", key, "bytes", len(encrypted))
	return nil
}

// snapshot produces a consistent copy of the database via VACUUM INTO.
func (m *Manager) snapshot() ([]byte, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("eventdesk-snapshot-%d.db", time.Now().UnixNano()))
	defer os.Remove(path)

	if _, err := m.db.Exec(`VACUUM INTO ?`, path); err != nil {
		return nil, fmt.Errorf("vacuum into snapshot: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}
