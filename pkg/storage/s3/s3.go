// Package s3 stores objects in an S3 bucket.
package s3

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
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	adserrors "github.com/matzehuels/adstudio/pkg/errors"
	"github.com/matzehuels/adstudio/pkg/storage"
)

// Client is the subset of the S3 API the store uses.
type Client interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Option configures a [Store].
type Option func(*Store)

// WithPublicURL sets the base of returned URLs, e.g. a CDN in front of the
// bucket. The default is the virtual-hosted bucket URL.
func WithPublicURL(u string) Option {
	return func(s *Store) { s.publicURL = strings.TrimSuffix(u, "/") }
}

// WithPrefix stores every object under prefix.
func WithPrefix(p string) Option {
	return func(s *Store) { s.prefix = strings.Trim(p, "/") }
}

// Store is an S3-backed storage.ObjectStore.
type Store struct {
	client    Client
	bucket    string
	prefix    string
	publicURL string
}

// New creates a store using the default AWS configuration chain.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	if bucket == "" {
		return nil, adserrors.New(adserrors.ErrCodeInvalidInput, "s3 bucket name must be set")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, storage.Wrap(err, "load AWS config")
	}
	s := NewWithClient(s3.NewFromConfig(cfg), bucket, opts...)
	if s.publicURL == "" {
		s.publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, cfg.Region)
	}
	return s, nil
}

// NewWithClient creates a store over an existing client.
func NewWithClient(c Client, bucket string, opts ...Option) *Store {
	s := &Store{client: c, bucket: bucket}
	for _, opt := range opts {
		opt(s)
	}
	if s.publicURL == "" {
		s.publicURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return s
}

func (s *Store) key(path string) string {
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

func (s *Store) url(key string) string {
	return s.publicURL + "/" + key
}

// Upload implements storage.ObjectStore.
func (s *Store) Upload(ctx context.Context, path string, data []byte, opts storage.UploadOptions) (string, error) {
	if err := adserrors.ValidatePath(path); err != nil {
		return "", err
	}
	key := s.key(path)
	if !opts.Upsert {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
		if err == nil {
			return "", storage.ErrExists
		}
	}
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", storage.Wrap(err, "upload %s", key)
	}
	return s.url(key), nil
}

// Download implements storage.ObjectStore.
func (s *Store) Download(ctx context.Context, path string) ([]byte, error) {
	key := s.key(path)
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, storage.NotFound("object", path)
		}
		return nil, storage.Wrap(err, "download %s", key)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return data, storage.Wrap(err, "read %s", key)
}

// List implements storage.ObjectStore.
func (s *Store) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	var out []storage.Object
	in := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(prefix)),
	}
	for {
		resp, err := s.client.ListObjectsV2(ctx, in)
		if err != nil {
			return nil, storage.Wrap(err, "list %q", prefix)
		}
		for _, o := range resp.Contents {
			key := aws.ToString(o.Key)
			path := key
			if s.prefix != "" {
				path = strings.TrimPrefix(key, s.prefix+"/")
			}
			out = append(out, storage.Object{
				Path:    path,
				Size:    aws.ToInt64(o.Size),
				URL:     s.url(key),
				ModTime: aws.ToTime(o.LastModified),
			})
		}
		if !aws.ToBool(resp.IsTruncated) {
			return out, nil
		}
		in.ContinuationToken = resp.NextContinuationToken
	}
}

// Delete implements storage.ObjectStore.
func (s *Store) Delete(ctx context.Context, path string) error {
	key := s.key(path)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	return storage.Wrap(err, "delete %s", key)
}

var _ storage.ObjectStore = (*Store)(nil)
