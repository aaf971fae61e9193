// audiostore/s3.go
package audiostore

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vaahana-ai/vaahana/pkg/logx"
)

const defaultURLTTL = time.Hour

// S3Store uploads synthesized audio to S3 and hands out presigned GET
// URLs, so replies can be fetched without any credentials on the
// client side.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
	urlTTL  time.Duration
}

// NewS3Store creates a store on the given bucket. Credentials and
// region resolution follow the default AWS chain.
func NewS3Store(ctx context.Context, region, bucket, prefix string, urlTTL time.Duration) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		logx.WithError(err).Error("Failed to load AWS configuration")
		return nil, NewInitError(err)
	}
	if urlTTL <= 0 {
		urlTTL = defaultURLTTL
	}

	client := s3.NewFromConfig(cfg)
	logx.WithFields(logx.Fields{
		"bucket": bucket,
		"prefix": prefix,
	}).Info("S3 audio store initialized")

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		prefix:  prefix,
		urlTTL:  urlTTL,
	}, nil
}

// Put uploads the audio and returns a presigned URL valid for the
// configured lifetime.
func (s *S3Store) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := path.Join(s.prefix, name)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		logx.WithField("key", key).WithError(err).Error("Audio upload failed")
		return "", NewUploadError(name, err)
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.urlTTL))
	if err != nil {
		logx.WithField("key", key).WithError(err).Error("Audio presign failed")
		return "", NewPresignError(name, err)
	}

	logx.WithFields(logx.Fields{
		"key":   key,
		"bytes": len(data),
	}).Debug("Audio uploaded")
	return req.URL, nil
}
