package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"estate_intel/config"
	"estate_intel/models"
)

const (
	contentTypeJSON     = "application/json"
	contentTypeWorkbook = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// S3Archive uploads reports and workbooks to S3-compatible storage
type S3Archive struct {
	client *s3.Client
	cfg    config.S3Config
}

func NewS3Archive(ctx context.Context, cfg config.S3Config) (*S3Archive, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &S3Archive{client: client, cfg: cfg}, nil
}

// SaveReport uploads the report as JSON under reports/<date>/<run id>.json.
func (a *S3Archive) SaveReport(ctx context.Context, r *models.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return a.upload(ctx, ReportKey(r, ".json"), bytes.NewReader(data), contentTypeJSON)
}

// UploadWorkbook stores the executive workbook next to its report and
// returns its public URL.
func (a *S3Archive) UploadWorkbook(ctx context.Context, r *models.Report, data []byte) (string, error) {
	key := ReportKey(r, ".xlsx")
	if err := a.upload(ctx, key, bytes.NewReader(data), contentTypeWorkbook); err != nil {
		return "", err
	}
	return a.PublicURL(key), nil
}

// Upload stores an arbitrary object under key.
func (a *S3Archive) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	return a.upload(ctx, key, data, contentType)
}

func (a *S3Archive) upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.cfg.Bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// ReportKey is the object key for one run's artifact.
func ReportKey(r *models.Report, ext string) string {
	day := r.StartedAt.UTC().Format("2006-01-02")
	id := r.RunID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return path.Join("reports", day, id.String()+ext)
}

// PublicURL returns the public URL for an S3 key
func (a *S3Archive) PublicURL(key string) string {
	cfg := a.cfg
	if cfg.Endpoint != "" && strings.Contains(cfg.Endpoint, "digitaloceanspaces.com") {
		// DO Spaces: https://{bucket}.{region}.digitaloceanspaces.com/{key}
		host := strings.TrimPrefix(cfg.Endpoint, "https://")
		return fmt.Sprintf("https://%s.%s/%s", cfg.Bucket, host, key)
	}
	if cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(cfg.Endpoint, "/"), cfg.Bucket, key)
	}
	// AWS S3: https://{bucket}.s3.{region}.amazonaws.com/{key}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, cfg.Region, key)
}
