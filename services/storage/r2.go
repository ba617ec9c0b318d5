// Package storage persists email attachment payloads in a Cloudflare R2
// bucket through the S3-compatible API.
package storage

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/caseflow/mailsync/config"
	"github.com/caseflow/mailsync/internal/tracing"
)

type R2Service struct {
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
	bucket     string
}

// NewR2Service builds the attachment store. Returns nil when R2 credentials
// are absent; callers treat a nil store as "attachments not persisted".
func NewR2Service(cfg *config.R2StorageConfig) (*R2Service, error) {
	if cfg == nil || cfg.AccountID == "" || cfg.AccessKeyID == "" {
		return nil, nil
	}

	awsCfg := &aws.Config{
		Endpoint:         aws.String("https://" + cfg.AccountID + ".r2.cloudflarestorage.com"),
		Region:           aws.String("auto"), // R2 uses "auto" region
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.AccessKeySecret, ""),
		S3ForcePathStyle: aws.Bool(true),
	}

	s, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "create R2 session")
	}

	return &R2Service{
		uploader:   s3manager.NewUploader(s),
		downloader: s3manager.NewDownloader(s),
		bucket:     cfg.EmailAttachmentBucket,
	}, nil
}

func (s *R2Service) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "R2Service.Upload")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.LogKV("key", key, "size", len(data))

	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "upload attachment")
	}
	return nil
}

func (s *R2Service) Download(ctx context.Context, key string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "R2Service.Download")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.LogKV("key", key)

	buffer := &aws.WriteAtBuffer{}
	_, err := s.downloader.DownloadWithContext(ctx, buffer, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "download attachment")
	}

	return buffer.Bytes(), nil
}
