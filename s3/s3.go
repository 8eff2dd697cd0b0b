// Package s3 stores fragment payloads in an S3-compatible bucket under
// <prefix>/<owner>/<id>.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sagarc03/fragments"
)

// Config options for the S3 backend
type Config struct {
	Region          string `mapstructure:"region"`            // AWS region (default: us-east-1)
	Bucket          string `mapstructure:"bucket"`            // S3 bucket name
	Prefix          string `mapstructure:"prefix"`            // Optional key prefix
	AccessKeyID     string `mapstructure:"access_key_id"`     // Static credentials; the default chain is used when empty
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Endpoint        string `mapstructure:"endpoint"`          // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   `mapstructure:"use_path_style"`    // Use path-style addressing

	// CreateBucketIfNotExist creates the bucket on startup, for MinIO and
	// other self-hosted services.
	CreateBucketIfNotExist bool `mapstructure:"create_bucket_if_not_exist"`
}

// Client is the subset of *s3.Client used by Store.
type Client interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient

	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// Store is an S3-backed fragments.BlobStorage.
type Store struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// New loads AWS configuration and returns a Store for cfg.Bucket.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("new s3 store: bucket name is required")
	}

	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new s3 store: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	store := NewWithClient(client, cfg.Bucket, cfg.Prefix)

	if cfg.CreateBucketIfNotExist {
		if err := store.createBucketIfNotExists(ctx, cfg.Region); err != nil {
			return nil, fmt.Errorf("new s3 store: %w", err)
		}
	}

	return store, nil
}

// NewWithClient returns a Store using an existing client.
func NewWithClient(client Client, bucket, prefix string) *Store {
	return &Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

func (s *Store) createBucketIfNotExists(ctx context.Context, region string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("check bucket: %w", err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}

	_, err = s.client.CreateBucket(ctx, input)
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("create bucket: %w", err)
	}

	return nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return true
	default:
		return false
	}
}

func (s *Store) key(ownerID, id string) string {
	return path.Join(s.prefix, ownerID, id)
}

// Get downloads the payload for (ownerID, id).
func (s *Store) Get(ctx context.Context, ownerID, id string) ([]byte, error) {
	if !fragments.IsValidKey(ownerID) || !fragments.IsValidKey(id) {
		return nil, fragments.ErrNotFound
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ownerID, id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fragments.ErrNotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("get object: read body: %w", err)
	}

	return data, nil
}

// Put uploads data for (ownerID, id), replacing any existing object.
func (s *Store) Put(ctx context.Context, ownerID, id string, data []byte) error {
	if !fragments.IsValidKey(ownerID) || !fragments.IsValidKey(id) {
		return fmt.Errorf("put object: %w: invalid blob key", fragments.ErrInvalidInput)
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(ownerID, id)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	return nil
}

// Delete removes the object for (ownerID, id). DeleteObject succeeds for
// missing keys, so existence is checked first to report ErrNotFound.
func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	if !fragments.IsValidKey(ownerID) || !fragments.IsValidKey(id) {
		return fragments.ErrNotFound
	}

	key := s.key(ownerID, id)

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return fragments.ErrNotFound
		}
		return fmt.Errorf("delete object: head: %w", err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	return nil
}

// List pages through the bucket under the prefix. Keys that are not of the
// form <owner>/<id> are skipped.
func (s *Store) List(ctx context.Context) ([]fragments.BlobKey, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix + "/")
	}

	keys := []fragments.BlobKey{}

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}

		for _, obj := range page.Contents {
			key, ok := s.parseKey(aws.ToString(obj.Key))
			if ok {
				keys = append(keys, key)
			}
		}
	}

	return keys, nil
}

func (s *Store) parseKey(objectKey string) (fragments.BlobKey, bool) {
	if s.prefix != "" {
		rest, ok := strings.CutPrefix(objectKey, s.prefix+"/")
		if !ok {
			return fragments.BlobKey{}, false
		}
		objectKey = rest
	}

	ownerID, id, ok := strings.Cut(objectKey, "/")
	if !ok || !fragments.IsValidKey(ownerID) || !fragments.IsValidKey(id) {
		return fragments.BlobKey{}, false
	}

	return fragments.BlobKey{OwnerID: ownerID, ID: id}, true
}
