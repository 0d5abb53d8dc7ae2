package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/tendant/simple-deck/pkg/simpledeck"
	fsstorage "github.com/tendant/simple-deck/pkg/simpledeck/storage/fs"
	memorystorage "github.com/tendant/simple-deck/pkg/simpledeck/storage/memory"
	s3storage "github.com/tendant/simple-deck/pkg/simpledeck/storage/s3"
)

// StorageConfig describes a blob store parsed from a storage URL
type StorageConfig struct {
	Type    string // "memory", "fs", "s3"
	BaseDir string
	S3      s3storage.Config
}

// ParseStorageURL parses one of:
//
//	memory://                       - In-memory storage
//	file:///path/to/data            - Filesystem storage
//	s3://bucket/prefix?region=us-east-1&endpoint=http://localhost:9000&path_style=true
//
// S3 credentials come from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY, and
// AWS_REGION overrides the default region when the URL names none.
func ParseStorageURL(raw string) (StorageConfig, error) {
	if raw == "" || raw == "memory" || raw == "memory://" {
		return StorageConfig{Type: "memory"}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return StorageConfig{}, fmt.Errorf("invalid storage URL: %w", err)
	}

	switch u.Scheme {
	case "file":
		path := u.Path
		if u.Host != "" && u.Host != "localhost" {
			// file://relative/dir
			path = u.Host + u.Path
		}
		if path == "" {
			return StorageConfig{}, fmt.Errorf("filesystem path cannot be empty in storage URL")
		}
		return StorageConfig{Type: "fs", BaseDir: path}, nil

	case "s3":
		return parseS3URL(u)

	default:
		return StorageConfig{}, fmt.Errorf("unsupported storage URL format: %s (use 'memory://', 'file://...', or 's3://...')", raw)
	}
}

func parseS3URL(u *url.URL) (StorageConfig, error) {
	if u.Host == "" {
		return StorageConfig{}, fmt.Errorf("S3 bucket name cannot be empty in storage URL")
	}
	q := u.Query()

	cfg := s3storage.Config{
		Bucket:       u.Host,
		Prefix:       strings.Trim(u.Path, "/"),
		Region:       q.Get("region"),
		Endpoint:     q.Get("endpoint"),
		SSEAlgorithm: q.Get("sse"),
		SSEKMSKeyID:  q.Get("kms_key_id"),
	}
	if cfg.Region == "" {
		cfg.Region = os.Getenv("AWS_REGION")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	cfg.EnableSSE = cfg.SSEAlgorithm != ""

	for key, dst := range map[string]*bool{
		"path_style":    &cfg.UsePathStyle,
		"create_bucket": &cfg.CreateBucketIfNotExist,
	} {
		if v := q.Get(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return StorageConfig{}, fmt.Errorf("invalid boolean for %s in storage URL: %w", key, err)
			}
			*dst = b
		}
	}

	if accessKey, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok && accessKey != "" {
		cfg.AccessKeyID = accessKey
	}
	if secretKey, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok && secretKey != "" {
		cfg.SecretAccessKey = secretKey
	}

	return StorageConfig{Type: "s3", S3: cfg}, nil
}

// Build creates the blob store
func (s StorageConfig) Build(ctx context.Context) (simpledeck.BlobStore, error) {
	switch s.Type {
	case "", "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{BaseDir: s.BaseDir})
	case "s3":
		return s3storage.New(ctx, s.S3)
	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", s.Type)
	}
}
