// Package s3store provides an S3-compatible storage backend for LFS objects.
// Objects are stored under "<prefix><repo>/<oid>".
package s3store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/sagarc03/lfsgate"
)

// Client is the subset of the S3 API the store uses.
type Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config describes the bucket and how to reach it.
type Config struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	Region          string `mapstructure:"region" yaml:"region"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint"`
	Prefix          string `mapstructure:"prefix" yaml:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
}

// Store provides S3 storage operations.
type Store struct {
	client Client
	bucket string
	prefix string
}

// New creates a Store over an existing client.
func New(client Client, bucket, prefix string) *Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// NewClient builds an S3 client from cfg. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain. A custom
// endpoint (MinIO, Localstack) switches to path-style addressing.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 store: %w: bucket is required", lfsgate.ErrInvalidInput)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3 store: %w: region is required", lfsgate.ErrInvalidInput)
	}

	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 store: load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *Store) key(repo, oid string) (string, error) {
	if !lfsgate.IsValidRepo(repo) || !lfsgate.IsValidOID(oid) {
		return "", fmt.Errorf("%w: invalid object reference %s/%s", lfsgate.ErrInvalidInput, repo, oid)
	}
	return s.prefix + repo + "/" + oid, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func (s *Store) head(ctx context.Context, repo, oid string) (*s3.HeadObjectOutput, error) {
	key, err := s.key(repo, oid)
	if err != nil {
		return nil, err
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, lfsgate.ErrNotFound
		}
		return nil, fmt.Errorf("head object %s: %w", key, err)
	}
	return out, nil
}

// Exists reports whether the object is in the bucket.
func (s *Store) Exists(ctx context.Context, repo, oid string) (bool, error) {
	_, err := s.head(ctx, repo, oid)
	if err != nil {
		if errors.Is(err, lfsgate.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Size returns the stored content length. Returns lfsgate.ErrNotFound if the object is absent.
func (s *Store) Size(ctx context.Context, repo, oid string) (int64, error) {
	out, err := s.head(ctx, repo, oid)
	if err != nil {
		return 0, err
	}
	return aws.ToInt64(out.ContentLength), nil
}

// Get streams the object body. Returns lfsgate.ErrNotFound if the object is absent.
func (s *Store) Get(ctx context.Context, repo, oid string) (io.ReadCloser, error) {
	key, err := s.key(repo, oid)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, lfsgate.ErrNotFound
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return out.Body, nil
}

// Write spools content to a temp file so the upload has a known length and
// a seekable body, then puts it in one request.
func (s *Store) Write(ctx context.Context, repo, oid string, content io.Reader) (lfsgate.SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return lfsgate.SaveResult{}, err
	}

	key, err := s.key(repo, oid)
	if err != nil {
		return lfsgate.SaveResult{}, err
	}

	spool, err := os.CreateTemp("", "lfsgate-s3-*")
	if err != nil {
		return lfsgate.SaveResult{}, fmt.Errorf("could not open temp file: %w", err)
	}
	defer func() {
		if closeErr := spool.Close(); closeErr != nil {
			slog.Warn("failed to close spool file", "err", closeErr)
		}
		if rmErr := os.Remove(spool.Name()); rmErr != nil {
			slog.Warn("failed to remove spool file", "err", rmErr)
		}
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(h, spool), content)
	if err != nil {
		return lfsgate.SaveResult{}, fmt.Errorf("could not spool contents: %w", err)
	}

	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return lfsgate.SaveResult{}, fmt.Errorf("could not rewind spool file: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          spool,
		ContentLength: aws.Int64(n),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return lfsgate.SaveResult{}, fmt.Errorf("put object %s: %w", key, err)
	}

	return lfsgate.SaveResult{BytesWritten: n, Etag: hex.EncodeToString(h.Sum(nil))}, nil
}

// Delete removes the object. S3 deletes are idempotent, so presence is
// checked first to report lfsgate.ErrNotFound.
func (s *Store) Delete(ctx context.Context, repo, oid string) error {
	if _, err := s.head(ctx, repo, oid); err != nil {
		return err
	}

	key, _ := s.key(repo, oid)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
