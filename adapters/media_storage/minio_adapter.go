package media_storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/config"
	"github.com/khoahotran/pictures/pkg/logger"
)

var tracer = otel.Tracer("pictures-media-storage")

type minioAdapter struct {
	client *minio.Client
	bucket string
	logger logger.Logger
}

func NewMinioAdapter(ctx context.Context, cfg config.Config, log logger.Logger) (service.Uploader, error) {
	if cfg.MinIO.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint has not config")
	}

	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	bucket := cfg.MinIO.Bucket
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		log.Info("Creating bucket", zap.String("bucket", bucket))
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	log.Info("Connect MinIO successfully.", zap.String("endpoint", cfg.MinIO.Endpoint), zap.String("bucket", bucket))
	return &minioAdapter{client: client, bucket: bucket, logger: log}, nil
}

func objectKey(folder, publicID string) string {
	if folder == "" {
		return publicID
	}
	return path.Join(folder, publicID)
}

func (a *minioAdapter) Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error) {
	key := objectKey(folder, publicID)
	ctx, span := tracer.Start(ctx, "minio.upload",
		trace.WithAttributes(attribute.String("object_key", key)),
	)
	defer span.End()

	info, err := a.client.PutObject(ctx, a.bucket, key, file, -1, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	span.SetAttributes(attribute.Int64("size_bytes", info.Size))
	return fmt.Sprintf("%s/%s/%s", a.client.EndpointURL(), a.bucket, key), nil
}

func (a *minioAdapter) Delete(ctx context.Context, publicID string) error {
	ctx, span := tracer.Start(ctx, "minio.delete",
		trace.WithAttributes(attribute.String("object_key", publicID)),
	)
	defer span.End()

	if err := a.client.RemoveObject(ctx, a.bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
