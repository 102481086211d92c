// Package s3 uploads roster snapshot documents to S3-compatible object
// storage (AWS S3 or MinIO) for offsite retention. Archiving is a post-save
// hook: a failed upload never fails the save that triggered it.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"rostercore/internal/persist"
	"rostercore/internal/store"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	defaultRegion = "us-east-1"
	defaultPrefix = "snapshots/"

	keyTimeLayout = "20060102T150405Z"
	contentType   = "application/json"
)

// Archiver uploads snapshot documents for one store to a single bucket. Keys
// are the configured prefix plus a UTC second-precision timestamp.
type Archiver struct {
	client  *s3.Client
	bucket  string
	prefix  string
	records *store.Store
	nowFn   func() time.Time
}

// Config holds explicit construction parameters (mostly for tests). For prod
// we rely primarily on environment variables.
type Config struct {
	Region    string
	Bucket    string
	Endpoint  string // optional; enables a custom endpoint (e.g. MinIO)
	Prefix    string // object key prefix, default "snapshots/"
	PathStyle bool
}

// Environment variables:
//
//	ROSTERCORE_ARCHIVE_S3_BUCKET=<bucket> (required; archiving is enabled by its presence)
//	ROSTERCORE_ARCHIVE_S3_REGION=<region> (default us-east-1)
//	ROSTERCORE_ARCHIVE_S3_ENDPOINT=<url> (optional, for MinIO)
//	ROSTERCORE_ARCHIVE_S3_PREFIX=<key prefix> (default snapshots/)
//	ROSTERCORE_ARCHIVE_S3_PATH_STYLE=true|false (default false)
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)

// New creates an archiver for st from Config.
func New(ctx context.Context, cfg Config, st *store.Store) (*Archiver, error) {
	if st == nil {
		return nil, fmt.Errorf("s3 archiver: nil store")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Archiver{client: client, bucket: cfg.Bucket, prefix: prefix, records: st, nowFn: time.Now}, nil
}

// EnvBucket names the variable that turns snapshot archiving on. The
// remaining ROSTERCORE_ARCHIVE_S3_* variables only refine it.
const EnvBucket = "ROSTERCORE_ARCHIVE_S3_BUCKET"

// OpenFromEnv constructs an archiver from process environment.
func OpenFromEnv(ctx context.Context, st *store.Store) (*Archiver, error) {
	bucket := os.Getenv(EnvBucket)
	if bucket == "" {
		return nil, fmt.Errorf("%s required for snapshot archiving", EnvBucket)
	}
	cfg := Config{
		Bucket:    bucket,
		Region:    os.Getenv("ROSTERCORE_ARCHIVE_S3_REGION"),
		Endpoint:  os.Getenv("ROSTERCORE_ARCHIVE_S3_ENDPOINT"),
		Prefix:    os.Getenv("ROSTERCORE_ARCHIVE_S3_PREFIX"),
		PathStyle: strings.EqualFold(os.Getenv("ROSTERCORE_ARCHIVE_S3_PATH_STYLE"), "true"),
	}
	return New(ctx, cfg, st)
}

// Archive encodes a point-in-time snapshot and uploads it under a timestamped
// key, returning the object key written. Uploads within the same second
// overwrite each other.
func (a *Archiver) Archive(ctx context.Context) (string, error) {
	data, err := persist.EncodeSnapshot(a.records.SnapshotAll())
	if err != nil {
		return "", err
	}
	key := a.prefix + a.nowFn().UTC().Format(keyTimeLayout) + ".json"
	input := &s3.PutObjectInput{
		Bucket:      &a.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if _, err := a.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload snapshot %s: %w", key, err)
	}
	return key, nil
}
