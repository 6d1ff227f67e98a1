package repository

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/util/compression"
)

type S3Options struct {
	AccessKeyID     string
	AccessKeySecret string
	// Endpoint points the client at an S3-compatible service. Empty uses AWS.
	Endpoint string
	Region   string
	Bucket   string
	Key      string
	// PathStyle addresses buckets as /bucket/key instead of by host name.
	PathStyle bool
}

// S3Store keeps the snapshot as a single object of a bucket.
type S3Store struct {
	*blobStore
	client       *s3.Client
	pollInterval time.Duration
}

type s3Blob struct {
	client *s3.Client
	bucket string
	key    string
}

func (b *s3Blob) read(ctx context.Context) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (b *s3Blob) write(ctx context.Context, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	})
	return err
}

func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	region := opts.Region
	if region == "" {
		region = "auto"
	}
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.AccessKeySecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
		// S3-compatible services reject the SDK's default request checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	}), nil
}

func NewS3Store(client *s3.Client, bucket, key string, c compression.Compressor, pollInterval time.Duration) *S3Store {
	return &S3Store{
		blobStore:    newBlobStore("s3", &s3Blob{client: client, bucket: bucket, key: key}, c),
		client:       client,
		pollInterval: pollInterval,
	}
}

// Watch polls the object since S3 has no change stream.
func (s *S3Store) Watch(ctx context.Context) (<-chan *model.Snapshot, error) {
	w := &PollWatcher{Pull: s.PullAll, Interval: s.pollInterval, Name: "s3"}
	return w.Watch(ctx)
}
