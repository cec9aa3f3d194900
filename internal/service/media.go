package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"inkstream/internal/config"
	"inkstream/internal/model"
)

const (
	bannerFolder      = "banners"
	bannerContentType = "image/jpeg"
	uploadURLExpiry   = 15 * time.Minute
)

// MediaService issues presigned S3 upload URLs for post banners. The client
// uploads directly to the bucket; this service never sees the bytes.
type MediaService struct {
	presigner *s3.PresignClient
	bucket    string
}

// NewMediaService constructs the S3 presign client from static credentials.
func NewMediaService(ctx context.Context, cfg *config.Config) (*MediaService, error) {
	if !cfg.MediaConfigured() {
		return nil, fmt.Errorf("missing S3 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &MediaService{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.S3BucketName,
	}, nil
}

// GetUploadURL returns a presigned PUT URL for one new banner image. The key
// is random so uploads never overwrite each other.
func (s *MediaService) GetUploadURL(ctx context.Context) (*model.UploadURLResponse, error) {
	key := fmt.Sprintf("%s/%s-%d.jpeg", bannerFolder, uuid.NewString(), time.Now().Unix())

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(bannerContentType),
	}, s3.WithPresignExpires(uploadURLExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign upload url: %w", err)
	}

	return &model.UploadURLResponse{UploadURL: req.URL}, nil
}
