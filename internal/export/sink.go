package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vovakirdan/bubble-chamber/internal/config"
)

// ContentType of every exported document.
const ContentType = "image/svg+xml"

// Sink stores an exported document under a name and reports where it went.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// FileSink writes documents to the local filesystem. Relative names are
// resolved against Dir.
type FileSink struct {
	Dir string
}

// Put implements Sink.
func (s FileSink) Put(_ context.Context, name string, data []byte) (string, error) {
	path := name
	if !filepath.IsAbs(path) && s.Dir != "" {
		path = filepath.Join(s.Dir, name)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("export: cannot create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("export: cannot write %s: %w", path, err)
	}
	return path, nil
}

// S3Sink uploads documents to an S3-compatible bucket.
type S3Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Sink creates a sink from the default AWS credential chain.
// A custom endpoint (e.g. MinIO) is used when configured.
func NewS3Sink(ctx context.Context, cfg config.S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("export: s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("export: load aws config: %w", err)
	}
	return newS3Sink(awsCfg, cfg), nil
}

func newS3Sink(awsCfg aws.Config, cfg config.S3Config, optFns ...func(*s3.Options)) *S3Sink {
	opts := append([]func(*s3.Options){func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}}, optFns...)
	return &S3Sink{
		client: s3.NewFromConfig(awsCfg, opts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}
}

// Put implements Sink. The returned location is an s3:// URI.
func (s *S3Sink) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := s.prefix + strings.TrimPrefix(filepath.ToSlash(name), "/")
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("export: upload %s: %w", key, err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

// NewSink builds the sink named by cfg.Sink.
func NewSink(ctx context.Context, cfg config.ExportConfig) (Sink, error) {
	switch cfg.Sink {
	case "", config.SinkFS:
		return FileSink{}, nil
	case config.SinkS3:
		return NewS3Sink(ctx, cfg.S3)
	}
	return nil, fmt.Errorf("export: unknown sink %q", cfg.Sink)
}

// Export renders doc and stores it in sink under name.
func Export(ctx context.Context, sink Sink, name string, doc Document) (string, error) {
	data, err := RenderSVG(doc)
	if err != nil {
		return "", err
	}
	return sink.Put(ctx, name, data)
}
