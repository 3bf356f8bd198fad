package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

const adsPrefix = "ads"

// S3Config holds the S3 pinner settings.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// S3 pins files to a public S3 bucket, keyed by the sha256 digest of the
// content so identical uploads land on the same key and the reference is
// content-addressed like an IPFS CID.
type S3 struct {
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 pinner. Falls back to the default credential chain when
// no static keys are configured.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	} else {
		logger.Warn("s3 pinner using default credential chain")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})
	return &S3{uploader: uploader, cfg: cfg, logger: logger}, nil
}

// PinFile hashes the content, uploads it under its digest key and returns the
// digest as the content identifier.
func (s *S3) PinFile(ctx context.Context, filename, contentType string, body io.Reader, size int64) (Result, error) {
	data, err := io.ReadAll(io.LimitReader(body, size))
	if err != nil {
		return Result{}, fmt.Errorf("read upload: %w", err)
	}
	sum := sha256.Sum256(data)
	cid := hex.EncodeToString(sum[:])
	key := path.Join(adsPrefix, cid)

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return Result{}, fmt.Errorf("s3 upload: %w", err)
	}
	return Result{
		CID:        cid,
		URI:        fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, key),
		GatewayURL: fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key),
	}, nil
}
