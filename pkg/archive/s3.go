package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/datascope/datascope/pkg/errors"
	"github.com/datascope/datascope/pkg/report"
)

// S3Config configures the S3 archive backend.
type S3Config struct {
	// Bucket is the S3 bucket for archived reports
	Bucket string

	// Prefix is prepended to all report keys (e.g., "reports/")
	Prefix string

	// Region is the AWS region
	Region string

	// Endpoint overrides the default S3 endpoint (for S3-compatible services)
	Endpoint string

	// Credentials (optional - uses default chain if not provided)
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// UsePathStyle forces path-style addressing (for MinIO, LocalStack)
	UsePathStyle bool

	// Timeout for S3 operations
	Timeout time.Duration
}

// DefaultS3Config returns sensible defaults.
func DefaultS3Config(bucket string) S3Config {
	return S3Config{
		Bucket:  bucket,
		Prefix:  "reports/",
		Timeout: 30 * time.Second,
	}
}

// S3 stores archived reports in an S3 bucket.
type S3 struct {
	cfg    S3Config
	client *s3.Client
}

// NewS3 creates an S3 archive backend.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				cfg.SessionToken,
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeArchiveFailed, "failed to load AWS config")
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3{cfg: cfg, client: s3.NewFromConfig(awsCfg, s3Opts...)}, nil
}

func (b *S3) key(jobID string) string {
	return b.cfg.Prefix + jobID + ".report.json"
}

// Save persists a report to S3 under the job ID.
func (b *S3) Save(ctx context.Context, jobID string, rep *report.Report) error {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	data, err := json.Marshal(rep)
	if err != nil {
		return errors.Wrap(err, errors.CodeArchiveFailed, "failed to marshal report").
			WithContext("job_id", jobID)
	}

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.cfg.Bucket),
		Key:         aws.String(b.key(jobID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeArchiveFailed, "failed to save report to S3").
			WithContext("job_id", jobID).
			WithContext("bucket", b.cfg.Bucket)
	}
	return nil
}

// Load retrieves an archived report from S3 by job ID.
func (b *S3) Load(ctx context.Context, jobID string) (*report.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	output, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(b.key(jobID)),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeArchiveFailed, "failed to load report from S3").
			WithContext("job_id", jobID).
			WithContext("bucket", b.cfg.Bucket)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeArchiveFailed, "failed to read report data").
			WithContext("job_id", jobID)
	}

	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, errors.Wrap(err, errors.CodeArchiveFailed, "failed to unmarshal report").
			WithContext("job_id", jobID)
	}
	return &rep, nil
}
