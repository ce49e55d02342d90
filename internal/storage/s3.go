package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/fuzzyvid/storyreel-api/internal/sigv4"
)

// Compile-time check that S3Gateway implements Gateway.
var _ Gateway = (*S3Gateway)(nil)

// DefaultPresignTTL bounds the validity window of minted retrieval URLs.
const DefaultPresignTTL = 15 * time.Minute

// S3Config holds the configuration for an S3-compatible object store.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: custom endpoint (e.g. an R2 account URL)
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration // Zero means DefaultPresignTTL
}

// S3Gateway stores artifacts in an S3-compatible bucket. Object reads and
// writes go through the AWS SDK client; presigned retrieval URLs are minted
// by the sigv4 signer directly so the same signing primitive covers both
// API calls and URL minting.
type S3Gateway struct {
	client     *s3.Client
	signer     *sigv4.Signer
	bucket     string
	region     string
	endpoint   string
	presignTTL time.Duration
}

// NewS3Gateway creates a gateway for the configured bucket.
func NewS3Gateway(cfg S3Config, opts ...sigv4.Option) (*S3Gateway, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsCfg, clientOpts...)

	signer, err := sigv4.NewSigner(sigv4.Credentials{
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	}, cfg.Region, "s3", opts...)
	if err != nil {
		return nil, fmt.Errorf("create presign signer: %w", err)
	}

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}

	return &S3Gateway{
		client:     client,
		signer:     signer,
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		presignTTL: ttl,
	}, nil
}

// Put stores the bytes under the key.
func (g *S3Gateway) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	return nil
}

// Get fetches the bytes and content type stored under the key.
func (g *S3Gateway) Get(ctx context.Context, key string) ([]byte, string, error) {
	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, "", fmt.Errorf("storage: get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, aws.ToString(out.ContentType), nil
}

// Presign mints a retrieval URL for the key, valid for the configured
// window. The signature is attached as query parameters over an empty-body
// GET against the object URL.
func (g *S3Gateway) Presign(_ context.Context, key string) (string, error) {
	signed, err := g.signer.Presign(http.MethodGet, g.objectURL(key), g.presignTTL)
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", key, err)
	}
	return signed, nil
}

// objectURL builds the direct URL for a key: path-style against a custom
// endpoint, virtual-host style against AWS proper.
func (g *S3Gateway) objectURL(key string) string {
	if g.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", g.endpoint, g.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", g.bucket, g.region, key)
}
