package clients

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Config addresses a Cloudflare R2 bucket.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// Endpoint overrides https://{AccountID}.r2.cloudflarestorage.com.
	Endpoint string
}

// R2Presigner issues presigned URLs for the object storage bucket that holds
// uploaded resumes and company logos.
type R2Presigner struct {
	presignClient *s3.PresignClient
	bucket        string
}

// NewR2Presigner creates a presigner over R2's S3-compatible API.
func NewR2Presigner(cfg R2Config) (*R2Presigner, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("r2 bucket is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.AccountID == "" {
			return nil, fmt.Errorf("r2 account id is required")
		}
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	s3Client := s3.New(s3.Options{
		Region: "auto",
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
	})

	return &R2Presigner{
		presignClient: s3.NewPresignClient(s3Client),
		bucket:        cfg.Bucket,
	}, nil
}

// Bucket returns the configured bucket name.
func (p *R2Presigner) Bucket() string { return p.bucket }

// PresignPut returns a URL the browser can PUT the object to directly.
func (p *R2Presigner) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}
	in := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	result, err := p.presignClient.PresignPutObject(ctx, in, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign PutObject for %q: %w", key, err)
	}
	return result.URL, nil
}

// PresignGet returns a time-limited download URL for key.
func (p *R2Presigner) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}
	result, err := p.presignClient.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(expiry),
	)
	if err != nil {
		return "", fmt.Errorf("presign GetObject for %q: %w", key, err)
	}
	return result.URL, nil
}
