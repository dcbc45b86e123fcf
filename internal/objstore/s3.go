// Package objstore moves batch inputs and exported scan logs through
// S3-compatible object storage (AWS S3 or MinIO).
package objstore

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const scheme = "s3://"

// API is the subset of *s3.Client the store calls.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config holds connection settings. Empty credentials fall back to the
// default AWS chain.
type Config struct {
	Region          string
	Endpoint        string // optional, e.g. a MinIO URL
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// Store reads and writes objects addressed by s3://bucket/key URLs.
type Store struct {
	client API
}

// New builds a Store on a real S3 client.
func New(ctx context.Context, cfg Config) (*Store, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "objstore: load aws config")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client API) *Store {
	return &Store{client: client}
}

// IsURL reports whether location is an s3:// URL.
func IsURL(location string) bool {
	return strings.HasPrefix(strings.ToLower(location), scheme)
}

// ParseURL splits s3://bucket/key into its bucket and key. The key may be
// empty or end in "/" when the URL names a prefix.
func ParseURL(raw string) (bucket, key string, err error) {
	if !IsURL(raw) {
		return "", "", eris.Errorf("objstore: %q is not an s3:// URL", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", eris.Wrapf(err, "objstore: parse %s", raw)
	}
	if u.Host == "" {
		return "", "", eris.Errorf("objstore: %q has no bucket", raw)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// Open returns the body of the object at location. The caller must close it.
func (s *Store) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := ParseURL(location)
	if err != nil {
		return nil, err
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return nil, eris.Errorf("objstore: %q names a prefix, not an object", location)
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, eris.Wrapf(err, "objstore: get %s", location)
	}
	return out.Body, nil
}

// DownloadToFile writes the object at location to dst and returns the byte
// count.
func (s *Store) DownloadToFile(ctx context.Context, location, dst string) (int64, error) {
	body, err := s.Open(ctx, location)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	f, err := os.Create(dst)
	if err != nil {
		return 0, eris.Wrapf(err, "objstore: create %s", dst)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, eris.Wrapf(err, "objstore: write %s", dst)
	}
	return n, nil
}

// UploadFile puts the local file at src under dest. When dest names a
// prefix (empty key or trailing "/") the file's base name is appended.
// It returns the object's s3:// URL.
func (s *Store) UploadFile(ctx context.Context, src, dest string) (string, error) {
	bucket, key, err := ParseURL(dest)
	if err != nil {
		return "", err
	}
	if key == "" || strings.HasSuffix(key, "/") {
		key = path.Join(key, filepath.Base(src))
	}

	f, err := os.Open(src)
	if err != nil {
		return "", eris.Wrapf(err, "objstore: open %s", src)
	}
	defer f.Close() //nolint:errcheck

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        f,
		ContentType: aws.String(contentType(src)),
	})
	if err != nil {
		return "", eris.Wrapf(err, "objstore: put s3://%s/%s", bucket, key)
	}

	loc := scheme + bucket + "/" + key
	zap.L().Debug("objstore: uploaded", zap.String("src", src), zap.String("dest", loc))
	return loc, nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	}
	return "application/octet-stream"
}
