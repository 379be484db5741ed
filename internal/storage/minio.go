package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-ranker/internal/config"
	"resume-ranker/internal/tracing"
	"resume-ranker/internal/types"
)

var minioTracer = otel.Tracer("resume-ranker/storage/minio")

// MinIO 提供对象存储功能，用于归档每次排序收到的原始简历
type MinIO struct {
	client *minio.Client
	cfg    *config.MinIOConfig
	bucket string
	logger zerolog.Logger
}

// NewMinIO 创建MinIO客户端
func NewMinIO(cfg *config.MinIOConfig, logger zerolog.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("MinIO endpoint 不能为空")
	}
	logger = logger.With().Str("component", "minio").Logger()
	logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("初始化 MinIO 客户端")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client: client,
		cfg:    cfg,
		bucket: cfg.BucketName,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.ensureBucketExists(ctx, m.bucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保存储桶 %s 存在失败: %w", m.bucket, err)
	}

	if cfg.ExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.bucket, "expire-archived-resumes", cfg.ExpireDays); err != nil {
			// 生命周期规则失败不影响归档
			logger.Warn().Err(err).Msg("设置生命周期规则失败")
		}
	}

	logger.Info().Msg("MinIO 客户端初始化完成")
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		m.logger.Debug().Str("bucket", bucketName).Msg("存储桶已存在")
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	m.logger.Info().Str("bucket", bucketName).Msg("存储桶已创建")
	return nil
}

// setupBucketLifecycle 为指定存储桶设置过期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, lc)
}

// UploadFile 上传文件，返回对象键
func (m *MinIO) UploadFile(ctx context.Context, objectName string, reader io.Reader, fileSize int64, contentType string) (string, error) {
	ctx, span := minioTracer.Start(ctx, "MinIO.UploadFile", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("minio.bucket", m.bucket),
		attribute.String("minio.object", tracing.TruncateString(objectName, tracing.DefaultMaxLength)),
		attribute.Int64("minio.size", fileSize),
		attribute.String("minio.content_type", contentType),
	)

	info, err := m.client.PutObject(ctx, m.bucket, objectName, reader, fileSize, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return "", fmt.Errorf("上传对象 %s/%s 失败: %w", m.bucket, objectName, err)
	}
	span.SetAttributes(attribute.String("minio.etag", info.ETag))
	span.SetStatus(codes.Ok, "")
	m.logger.Debug().Str("object", objectName).Int64("size", info.Size).Msg("对象上传完成")
	return objectName, nil
}

// ArchiveResume 实现 processor.ResumeArchiver
func (m *MinIO) ArchiveResume(ctx context.Context, runID string, index int, upload types.ResumeUpload) error {
	objectName := ArchiveObjectName(runID, index, upload.Filename)
	contentType := mimetype.Detect(upload.Data).String()
	_, err := m.UploadFile(ctx, objectName, bytes.NewReader(upload.Data), int64(len(upload.Data)), contentType)
	return err
}

// ArchiveObjectName 归档对象键：runs/{runID}/{index}-{文件名}
func ArchiveObjectName(runID string, index int, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "unnamed"
	}
	return fmt.Sprintf("runs/%s/%d-%s", runID, index, name)
}
