package persistent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/andreyxaxa/post-pipeline/pkg/s3client"
	"github.com/andreyxaxa/post-pipeline/pkg/types/errs"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3ImageRepo struct {
	*s3client.S3Client
	bucket string
	prefix string
}

// NewS3ImageRepo stores objects under prefix in bucket, so staging and
// processed images may share one bucket.
func NewS3ImageRepo(s3c *s3client.S3Client, bucket, prefix string) *S3ImageRepo {
	return &S3ImageRepo{s3c, bucket, prefix}
}

func (r *S3ImageRepo) key(key string) string {
	return r.prefix + key
}

func (r *S3ImageRepo) Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(r.key(key)),
		Body:          data,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("S3ImageRepo - Upload - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *S3ImageRepo) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(r.key(key)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("S3ImageRepo - UploadBytes - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *S3ImageRepo) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(key)),
	})
	if err != nil {
		return nil, fmt.Errorf("S3ImageRepo - Download - r.Client.GetObject: %w", mapS3Error(err))
	}

	return result.Body, nil
}

func (r *S3ImageRepo) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	body, err := r.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("S3ImageRepo - DownloadBytes - r.Download: %w", err)
	}
	defer body.Close()

	b, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("S3ImageRepo - DownloadBytes - io.ReadAll: %w", err)
	}

	return b, nil
}

func (r *S3ImageRepo) Delete(ctx context.Context, key string) error {
	_, err := r.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(key)),
	})
	if err != nil {
		return fmt.Errorf("S3ImageRepo - Delete - r.Client.DeleteObject: %w", err)
	}

	return nil
}

func (r *S3ImageRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64

	paginator := s3.NewListObjectsV2Paginator(r.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(r.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("S3ImageRepo - DeleteOlderThan - paginator.NextPage: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.LastModified == nil || !obj.LastModified.Before(cutoff) {
				continue
			}

			_, err = r.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(r.bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return deleted, fmt.Errorf("S3ImageRepo - DeleteOlderThan - r.Client.DeleteObject: %w", err)
			}
			deleted++
		}
	}

	return deleted, nil
}

func mapS3Error(err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %w", errs.ErrObjectNotFound, err)
	}

	return err
}
