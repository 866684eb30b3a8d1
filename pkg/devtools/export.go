package devtools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNoExporter is returned by the snapshot route when no exporter is set.
var ErrNoExporter = errors.New("devtools: no snapshot exporter configured")

// Exporter persists an encoded snapshot and returns where it went.
type Exporter interface {
	Export(ctx context.Context, name string, data []byte) (string, error)
}

// FileExporter writes snapshots into a directory.
type FileExporter struct {
	dir string
}

// NewFileExporter creates dir if needed and returns an exporter writing
// into it.
func NewFileExporter(dir string) (*FileExporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileExporter{dir: dir}, nil
}

// Export writes data to dir/name via a temporary file and rename.
func (e *FileExporter) Export(_ context.Context, name string, data []byte) (string, error) {
	path := filepath.Join(e.dir, filepath.Base(name))
	tmp, err := os.CreateTemp(e.dir, ".snapshot-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}

// S3API is the subset of *s3.Client used by S3Exporter.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Exporter uploads snapshots to a bucket.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	exp := devtools.NewS3Exporter(s3.NewFromConfig(cfg), "my-bucket", "reactor/")
type S3Exporter struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Exporter creates an exporter writing to bucket under prefix.
func NewS3Exporter(client S3API, bucket, prefix string) *S3Exporter {
	return &S3Exporter{client: client, bucket: bucket, prefix: prefix}
}

// Export uploads data as prefix+name and returns its s3:// location.
func (e *S3Exporter) Export(ctx context.Context, name string, data []byte) (string, error) {
	key := e.prefix + name
	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(e.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			"export-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", e.bucket, key), nil
}
