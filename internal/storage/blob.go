package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"lembretes/internal/reminder"
)

const DefaultBlobKey = "lembretes.json"

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ObjectAPI is the part of the S3 client the blob backend uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type BlobOptions struct {
	Bucket    string
	Key       string
	Region    string
	Endpoint  string // optional, e.g. a MinIO URL
	AccessKey string
	SecretKey string
}

// BlobStorage stores the collection as one object in an S3-compatible
// bucket. There is no listing; get, put and delete all target one key.
type BlobStorage struct {
	api    ObjectAPI
	bucket string
	key    string
}

func NewBlobStorage(ctx context.Context, opts BlobOptions) (*BlobStorage, error) {
	if opts.Bucket == "" {
		return nil, unavailable("blob bucket is not configured")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewBlobStorageWithAPI(client, opts.Bucket, opts.Key), nil
}

func NewBlobStorageWithAPI(api ObjectAPI, bucket, key string) *BlobStorage {
	if key == "" {
		key = DefaultBlobKey
	}
	return &BlobStorage{api: api, bucket: bucket, key: key}
}

func (b *BlobStorage) Type() string {
	return TypeBlob
}

func (b *BlobStorage) Load(ctx context.Context) ([]*reminder.Reminder, error) {
	const op = "blob get"

	out, err := b.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		if isMissingObject(err) {
			return []*reminder.Reminder{}, nil
		}
		return nil, &RemoteError{Op: op, Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []*reminder.Reminder{}, nil
	}
	var list []*reminder.Reminder
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, &RemoteError{Op: op, Err: fmt.Errorf("decode %s: %w", b.key, err)}
	}
	if list == nil {
		list = []*reminder.Reminder{}
	}
	return list, nil
}

func (b *BlobStorage) ReplaceAll(ctx context.Context, items []*reminder.Reminder) error {
	const op = "blob put"

	if items == nil {
		items = []*reminder.Reminder{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = b.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	return nil
}

func (b *BlobStorage) Clear(ctx context.Context) error {
	_, err := b.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil && !isMissingObject(err) {
		return &RemoteError{Op: "blob delete", Err: err}
	}
	return nil
}

func isMissingObject(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
