package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/multierr"

	"github.com/dukerupert/mobilityquest/internal/loop"
	"github.com/dukerupert/mobilityquest/internal/model"
)

const snapshotVersion = 1

var (
	ErrDisabled      = errors.New("backup not configured: S3 credentials missing")
	ErrNotFound      = errors.New("backup not found")
	ErrNoPassphrase  = errors.New("backup passphrase required")
	ErrBadVersion    = errors.New("unsupported backup version")
	ErrAlreadyActive = errors.New("backup already in progress")
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Source produces and accepts the persisted tracker state.
type Source interface {
	Snapshot() (map[string]json.RawMessage, error)
	Restore(blobs map[string]json.RawMessage) error
}

// Records keeps the history of backups.
type Records interface {
	Create(filename, s3Key string) (*model.Backup, error)
	GetByID(id int64) (*model.Backup, error)
	List(limit int) ([]model.Backup, error)
	UpdateStatus(id int64, status model.BackupStatus, errorMsg string) error
	UpdateCompleted(id, sizeBytes int64) error
	DeleteOlderThan(before time.Time) ([]string, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Config holds backup manager configuration.
type Config struct {
	S3     S3Config
	Prefix string
	// Passphrase enables scheduled backups when set.
	Passphrase    string
	Interval      time.Duration
	RetentionDays int
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State         `json:"state"`
	LastBackup *time.Time    `json:"last_backup,omitempty"`
	Error      string        `json:"error,omitempty"`
	InProgress bool          `json:"in_progress"`
	Duration   time.Duration `json:"-"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// snapshot is the plaintext stored in every backup object.
type snapshot struct {
	Version   int                        `json:"version"`
	CreatedAt time.Time                  `json:"created_at"`
	Blobs     map[string]json.RawMessage `json:"blobs"`
}

// Manager manages encrypted backups to S3-compatible storage.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback
	logger   *slog.Logger

	source  Source
	records Records
	client  s3Client
	runner  *loop.Runner
	now     func() time.Time
}

// NewManager creates a new backup manager.
func NewManager(cfg Config, source Source, records Records, callback StatusCallback, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "mobilityquest"
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	m := &Manager{
		cfg:      cfg,
		source:   source,
		records:  records,
		callback: callback,
		logger:   logger,
		status:   Status{State: StateDisabled},
		now:      time.Now,
	}

	if cfg.S3.complete() {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether S3 storage is configured.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Start begins scheduled backups. It does nothing unless storage, a
// passphrase and an interval are all configured.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.client == nil || m.cfg.Passphrase == "" || m.cfg.Interval <= 0 {
		m.mu.Unlock()
		return
	}
	m.runner = loop.New("backup", m.cfg.Interval, m.logger, func(ctx context.Context, _ time.Time) {
		m.scheduled(ctx)
	})
	runner := m.runner
	m.mu.Unlock()

	m.logger.Info("scheduled backups enabled", "interval", m.cfg.Interval, "retention_days", m.cfg.RetentionDays)
	runner.Start(ctx)
}

// Stop gracefully stops the backup manager.
func (m *Manager) Stop() {
	m.mu.RLock()
	runner := m.runner
	m.mu.RUnlock()

	if runner != nil {
		runner.Stop()
	}
}

func (m *Manager) scheduled(ctx context.Context) {
	if _, err := m.RunNow(ctx, m.cfg.Passphrase); err != nil {
		m.logger.Error("scheduled backup failed", "error", err)
	}
	if err := m.Cleanup(ctx, m.cfg.RetentionDays); err != nil {
		m.logger.Error("backup cleanup failed", "error", err)
	}
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

// List returns the most recent backups.
func (m *Manager) List(limit int) ([]model.Backup, error) {
	return m.records.List(limit)
}

// RunNow snapshots, encrypts and uploads the tracker state immediately.
func (m *Manager) RunNow(ctx context.Context, passphrase string) (int64, error) {
	if passphrase == "" {
		return 0, ErrNoPassphrase
	}

	m.mu.Lock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	prefix := m.cfg.Prefix
	if client == nil {
		m.mu.Unlock()
		return 0, ErrDisabled
	}
	if m.status.InProgress {
		m.mu.Unlock()
		return 0, ErrAlreadyActive
	}
	m.status.InProgress = true
	m.mu.Unlock()

	started := m.now()
	m.setStatus(Status{State: StateRunning, InProgress: true})

	timestamp := started.UTC().Format("2006-01-02T150405Z")
	filename := fmt.Sprintf("backup-%s.json.enc", timestamp)
	s3Key := fmt.Sprintf("%s/%s", prefix, filename)

	record, err := m.records.Create(filename, s3Key)
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return 0, fmt.Errorf("create backup record: %w", err)
	}

	fail := func(stage string, err error) (int64, error) {
		if uerr := m.records.UpdateStatus(record.ID, model.BackupStatusFailed, err.Error()); uerr != nil {
			m.logger.Error("mark backup failed", "id", record.ID, "error", uerr)
		}
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return 0, fmt.Errorf("%s: %w", stage, err)
	}

	blobs, err := m.source.Snapshot()
	if err != nil {
		return fail("snapshot", err)
	}
	plaintext, err := json.Marshal(snapshot{Version: snapshotVersion, CreatedAt: started.UTC(), Blobs: blobs})
	if err != nil {
		return fail("encode snapshot", err)
	}
	encrypted, err := Encrypt(plaintext, passphrase)
	if err != nil {
		return fail("encrypt", err)
	}

	if err := m.records.UpdateStatus(record.ID, model.BackupStatusUploading, ""); err != nil {
		m.logger.Warn("mark backup uploading", "id", record.ID, "error", err)
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(s3Key),
		Body:          bytes.NewReader(encrypted),
		ContentLength: aws.Int64(int64(len(encrypted))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fail("upload to s3", err)
	}

	if err := m.records.UpdateCompleted(record.ID, int64(len(encrypted))); err != nil {
		m.logger.Error("mark backup completed", "id", record.ID, "error", err)
	}

	done := m.now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &done, Duration: done.Sub(started)})
	m.logger.Info("backup completed", "id", record.ID, "key", s3Key, "size", len(encrypted), "keys", len(blobs))

	return record.ID, nil
}

// Restore downloads a backup, decrypts it and hands the blobs to the source.
func (m *Manager) Restore(ctx context.Context, backupID int64, passphrase string) error {
	if passphrase == "" {
		return ErrNoPassphrase
	}

	data, err := m.download(ctx, backupID)
	if err != nil {
		return err
	}

	plaintext, err := Decrypt(data, passphrase)
	if err != nil {
		return fmt.Errorf("decrypt backup: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(plaintext, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("%w: %d", ErrBadVersion, snap.Version)
	}

	if err := m.source.Restore(snap.Blobs); err != nil {
		return fmt.Errorf("apply snapshot: %w", err)
	}
	m.logger.Info("backup restored", "id", backupID, "created_at", snap.CreatedAt)
	return nil
}

// Download streams an encrypted backup from S3.
func (m *Manager) Download(ctx context.Context, backupID int64) (io.ReadCloser, int64, error) {
	client, bucket, record, err := m.lookup(backupID)
	if err != nil {
		return nil, 0, err
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(record.S3Key),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("download from s3: %w", err)
	}

	return result.Body, record.SizeBytes, nil
}

func (m *Manager) download(ctx context.Context, backupID int64) ([]byte, error) {
	body, _, err := m.Download(ctx, backupID)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	return data, nil
}

func (m *Manager) lookup(backupID int64) (s3Client, string, *model.Backup, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil, "", nil, ErrDisabled
	}

	record, err := m.records.GetByID(backupID)
	if err != nil {
		return nil, "", nil, fmt.Errorf("get backup: %w", err)
	}
	if !record.Restorable() {
		return nil, "", nil, ErrNotFound
	}
	return client, bucket, record, nil
}

// Cleanup deletes backups older than the retention period. Objects that
// could not be removed from storage are reported together.
func (m *Manager) Cleanup(ctx context.Context, retentionDays int) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil
	}

	before := m.now().UTC().AddDate(0, 0, -retentionDays)
	keys, err := m.records.DeleteOlderThan(before)
	if err != nil {
		return fmt.Errorf("delete old backups: %w", err)
	}

	var errs error
	for _, key := range keys {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete s3 object %s: %w", key, err))
		}
	}
	if len(keys) > 0 {
		m.logger.Info("old backups removed", "count", len(keys))
	}
	return errs
}
