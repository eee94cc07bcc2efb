// Package s3bucket stores expression documents as objects in an S3 bucket.
package s3bucket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hengadev/exprjson"
)

const (
	contentType = "application/json"
	// digestKey is the object metadata entry holding the BLAKE2b digest.
	digestKey = "blake2b"
)

// s3Client is the subset of the S3 API the store uses (allows mocking).
type s3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config holds configuration for the S3 document store.
type Config struct {
	Bucket string
	// Prefix is prepended to every key, e.g. "exprs/".
	Prefix string

	// Region is the AWS region (e.g., "us-east-1")
	// If empty, uses AWS_REGION environment variable or AWS config file
	Region string

	// Endpoint overrides the S3 endpoint, e.g. for MinIO or LocalStack.
	Endpoint       string
	ForcePathStyle bool

	// AWSConfig is an optional pre-configured AWS config
	// If provided, Region is ignored
	AWSConfig *aws.Config

	Logger *exprjson.StructuredLogger
}

// DocumentStore implements exprjson.DocumentStore over S3.
type DocumentStore struct {
	client s3Client
	bucket string
	prefix string
	logger *exprjson.StructuredLogger
}

var _ exprjson.DocumentStore = (*DocumentStore)(nil)

// New creates a store from cfg.
//
// Usage:
//
//	store, err := s3bucket.New(ctx, s3bucket.Config{Bucket: "exprs", Region: "eu-west-1"})
//
//	// Against a local MinIO
//	store, err := s3bucket.New(ctx, s3bucket.Config{
//	    Bucket:         "exprs",
//	    Endpoint:       "http://localhost:9000",
//	    ForcePathStyle: true,
//	})
func New(ctx context.Context, cfg Config) (*DocumentStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("%w: bucket cannot be empty", exprjson.ErrInvalidConfiguration)
	}

	var awsConfig aws.Config
	if cfg.AWSConfig != nil {
		awsConfig = *cfg.AWSConfig
	} else {
		opts := []func(*config.LoadOptions) error{}
		if cfg.Region != "" {
			opts = append(opts, config.WithRegion(cfg.Region))
		}
		var err error
		awsConfig, err = config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return newStore(client, cfg), nil
}

func newStore(client s3Client, cfg Config) *DocumentStore {
	logger := cfg.Logger
	if logger == nil {
		logger = exprjson.NewProductionLogger("s3")
	}
	return &DocumentStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger,
	}
}

func (s *DocumentStore) Put(ctx context.Context, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.prefix + key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
		Metadata:      map[string]string{digestKey: exprjson.DocumentDigest(body)},
	})
	s.logger.LogStoreOperation(ctx, "put", "s3", key, len(body), err)
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s%s: %w", s.bucket, s.prefix, key, err)
	}
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		s.logger.LogStoreOperation(ctx, "get", "s3", key, 0, err)
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%w: s3://%s/%s%s", exprjson.ErrDocumentNotFound, s.bucket, s.prefix, key)
		}
		return nil, fmt.Errorf("failed to get s3://%s/%s%s: %w", s.bucket, s.prefix, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	s.logger.LogStoreOperation(ctx, "get", "s3", key, len(data), err)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s%s: %w", s.bucket, s.prefix, key, err)
	}
	// objects written by other tools may carry no digest
	if err := exprjson.VerifyDigest(key, data, out.Metadata[digestKey]); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *DocumentStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	s.logger.LogStoreOperation(ctx, "delete", "s3", key, 0, err)
	if err != nil {
		return fmt.Errorf("failed to delete s3://%s/%s%s: %w", s.bucket, s.prefix, key, err)
	}
	return nil
}

// List pages through every object under the store prefix plus prefix and
// returns the keys without the store prefix.
func (s *DocumentStore) List(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s%s: %w", s.bucket, s.prefix, prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
		}
	}
	return keys, nil
}
