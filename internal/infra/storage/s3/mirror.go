package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Mirror copies backup snapshots into an S3-compatible bucket. Every upload is
// written twice: once under its key and once under a timestamped history key.
type Mirror struct {
	bucket         string
	endpoint       string
	client         *minio.Client
	logger         *slog.Logger
	now            func() time.Time
	bucketInitOnce sync.Once
	bucketInitErr  error
}

func NewMirror(endpoint string, useSSL bool, accessKey, secretKey, bucket string, logger *slog.Logger) (*Mirror, error) {
	cleanEndpoint := strings.TrimSpace(endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(accessKey), strings.TrimSpace(secretKey), ""),
		Secure: useSSL,
	}
	client, err := minio.New(parseEndpoint(cleanEndpoint), opts)
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	return &Mirror{
		bucket:   bucket,
		endpoint: strings.TrimRight(cleanEndpoint, "/"),
		client:   client,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Upload buffers reader once so that both copies carry the same bytes.
func (m *Mirror) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	if reader == nil {
		return "", errors.New("s3: reader is required")
	}
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("s3: object key is required")
	}
	if err := m.ensureBucket(ctx); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("s3: read content: %w", err)
	}
	for _, k := range []string{key, m.historyKey(key)} {
		_, err := m.client.PutObject(ctx, m.bucket, k, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return "", fmt.Errorf("s3: put object %s: %w", k, err)
		}
	}
	objectURL := fmt.Sprintf("%s/%s/%s", m.endpoint, m.bucket, key)
	if m.logger != nil {
		m.logger.Debug("snapshot mirrored", "bucket", m.bucket, "key", key, "bytes", len(body))
	}
	return objectURL, nil
}

// Ping reports whether the bucket is reachable, for readiness checks.
func (m *Mirror) Ping(ctx context.Context) error {
	_, err := m.client.BucketExists(ctx, m.bucket)
	return err
}

func (m *Mirror) historyKey(key string) string {
	stamp := m.now().UTC().Format("20060102T150405Z")
	dir, file := "", key
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		dir, file = key[:idx+1], key[idx+1:]
	}
	return dir + "history/" + stamp + "-" + file
}

func (m *Mirror) ensureBucket(ctx context.Context) error {
	m.bucketInitOnce.Do(func() {
		exists, err := m.client.BucketExists(ctx, m.bucket)
		if err != nil {
			m.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			m.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
		}
	})
	return m.bucketInitErr
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}
