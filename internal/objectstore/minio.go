// Package objectstore загружает скриншоты оплаты в S3-совместимое хранилище.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/CromwellTrading/PelisBot/internal/config"
)

const defaultRegion = "us-east-1"

// ErrMissingCredentials возвращается, если не задан access key или secret key.
var ErrMissingCredentials = errors.New("access key and secret key are required")

// Client оборачивает клиент MinIO.
type Client struct {
	client    *minio.Client
	bucket    string
	publicURL string
	log       *slog.Logger
}

// NewClient создаёт клиент хранилища. Подключение не проверяется.
func NewClient(cfg config.ObjectStorage, log *slog.Logger) (*Client, error) {
	const op = "objectstore.NewClient"

	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingCredentials)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: defaultRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}

	return &Client{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		log:       log,
	}, nil
}

// EnsureBucket создаёт бакет, если его нет.
func (c *Client) EnsureBucket(ctx context.Context) error {
	const op = "objectstore.EnsureBucket"
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil
	}
	if err = c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: defaultRegion}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.log.Info("created bucket", slog.String("bucket", c.bucket))
	return nil
}

// Upload сохраняет объект под ключом key и возвращает его публичный URL.
func (c *Client) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	const op = "objectstore.Upload"

	_, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	url := c.PublicURL(key)
	c.log.Debug("uploaded object",
		slog.String("bucket", c.bucket),
		slog.String("key", key),
		slog.Int("size", len(data)),
	)
	return url, nil
}

// PublicURL возвращает публичный адрес объекта.
func (c *Client) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicURL, c.bucket, key)
}
