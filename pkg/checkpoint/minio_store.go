package checkpoint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"datedreader/pkg/config"
	"datedreader/pkg/logger"
	"datedreader/pkg/retry"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// defaultMinioTimeout bounds each Load or Save round trip
const defaultMinioTimeout = 30 * time.Second

// MinioStore keeps the checkpoint table as a JSON object in an
// S3-compatible bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	key     string
	timeout time.Duration
	retry   *retry.Config
}

// NewMinioStore creates a store for the object <prefix>/<name> in bucket.
// Each round trip is attempted once until SetRetry says otherwise.
func NewMinioStore(client *minio.Client, bucket, prefix, name string) *MinioStore {
	s := &MinioStore{
		client:  client,
		bucket:  bucket,
		key:     path.Join(prefix, name),
		timeout: defaultMinioTimeout,
	}
	s.SetRetry(1, 0, logger.GetLogger())
	return s
}

// SetRetry sets how often a failed Load or Save round trip is attempted
func (s *MinioStore) SetRetry(attempts int, delay time.Duration, log logger.Logger) {
	cfg := retry.NewConfig(attempts, delay, log)
	cfg.RetryIf = retryMinio
	s.retry = cfg
}

// NewMinioStoreFromConfig dials the configured endpoint. cfg.Path, when set,
// names the object; it defaults to "default.checkpoint.json".
func NewMinioStoreFromConfig(cfg config.StoreConfig) (*MinioStore, error) {
	mc := cfg.Minio
	client, err := minio.New(mc.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(mc.AccessKey, mc.SecretKey, ""),
		Secure: mc.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	name := cfg.Path
	if name == "" {
		name = "default.checkpoint.json"
	}
	s := NewMinioStore(client, mc.Bucket, mc.Prefix, name)
	s.SetRetry(cfg.RetryAttempts, cfg.RetryDelay, logger.GetLogger().WithField("store", s.location()))
	return s, nil
}

// Key returns the object key the table is stored under
func (s *MinioStore) Key() string {
	return s.key
}

func (s *MinioStore) location() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

// Load implements Store. A missing object yields an empty table.
func (s *MinioStore) Load() (Table, error) {
	return retry.DoWithResult(s.load, s.retry)
}

func (s *MinioStore) load() (Table, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return NewTable(), nil
		}
		return nil, fmt.Errorf("get checkpoint object: %w", err)
	}
	defer obj.Close()

	// GetObject is lazy; the not-found error surfaces on Stat or first read
	if _, err := obj.Stat(); err != nil {
		if isNoSuchKey(err) {
			return NewTable(), nil
		}
		return nil, fmt.Errorf("stat checkpoint object: %w", err)
	}

	// A body cut off mid-transfer is a transport failure, not a corrupt document
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return NewTable(), nil
		}
		return nil, fmt.Errorf("read checkpoint object: %w", err)
	}

	return decodeDocument(bytes.NewReader(data), s.location())
}

// Save implements Store by overwriting the object
func (s *MinioStore) Save(t Table) error {
	var buf bytes.Buffer
	if err := encodeDocument(&buf, t); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	return retry.Do(func() error {
		return s.put(buf.Bytes())
	}, s.retry)
}

func (s *MinioStore) put(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, s.bucket, s.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put checkpoint object: %w", err)
	}
	return nil
}

// Close is a no-op; the client has no per-store resources
func (s *MinioStore) Close() error {
	return nil
}

// retryMinio retries network failures and retryable S3 status codes
func retryMinio(err error) bool {
	if !retry.DefaultRetryIf(err) {
		return false
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.StatusCode != 0 {
		return retry.IsRetryable(resp.StatusCode)
	}
	return true
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}
