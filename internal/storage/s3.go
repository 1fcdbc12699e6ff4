// Package storage keeps chat image attachments in S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/souschef/backend/config"
)

const defaultPresignTTL = time.Hour

// Uploader stores objects in a single bucket and hands out presigned GET URLs
type Uploader struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
	log     *zap.Logger
}

// NewUploader returns nil when S3 is not configured
func NewUploader(s3Config *config.S3Config, ttl time.Duration, log *zap.Logger) *Uploader {
	if s3Config == nil || s3Config.Client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	return &Uploader{
		client:  s3Config.Client,
		presign: s3.NewPresignClient(s3Config.Client),
		bucket:  s3Config.BucketName,
		ttl:     ttl,
		log:     log.Named("storage"),
	}
}

// ChatImageKey returns the object key for a chat attachment
func ChatImageKey(userID string) string {
	return fmt.Sprintf("chat/%s/%s.jpg", userID, uuid.New().String())
}

// Upload puts data under key and returns a presigned URL for reading it back
func (u *Uploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	u.log.Debug("uploaded object", zap.String("key", key), zap.Int("bytes", len(data)))
	return u.PresignGet(ctx, key)
}

// PresignGet returns a time limited URL for key
func (u *Uploader) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := u.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(u.ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}
