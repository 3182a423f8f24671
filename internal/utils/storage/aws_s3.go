package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"foodgram/internal/utils"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2/log"
)

var (
	AllowImage = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrEmptyFile          = errors.New("file is empty")
)

type (
	AwsS3 interface {
		UploadFile(ctx context.Context, name string, data []byte, folder string, allowTypes ...string) (string, error)
		DeleteFile(ctx context.Context, objectKey string) error
		GetPublicLinkKey(objectKey string) string
		GetObjectKeyFromLink(link string) string
	}

	awsS3 struct {
		client   *s3.Client
		bucket   string
		region   string
		endpoint string
	}
)

func NewAwsS3() AwsS3 {
	region := utils.GetConfig("AWS_S3_REGION")
	endpoint := strings.TrimRight(utils.GetConfig("AWS_S3_ENDPOINT"), "/")

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			utils.GetConfig("AWS_ACCESS_KEY"),
			utils.GetConfig("AWS_SECRET_KEY"),
			"",
		)),
	)
	if err != nil {
		log.Fatalf("error loading aws config: %v", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &awsS3{
		client:   client,
		bucket:   utils.GetConfig("AWS_S3_BUCKET"),
		region:   region,
		endpoint: endpoint,
	}
}

// DetectFileType sniffs data and checks it against allowTypes. It returns the
// mime type and the file extension, including the leading dot.
func DetectFileType(data []byte, allowTypes ...string) (string, string, error) {
	if len(data) == 0 {
		return "", "", ErrEmptyFile
	}

	mtype := mimetype.Detect(data)
	if len(allowTypes) > 0 && !slices.ContainsFunc(allowTypes, mtype.Is) {
		return "", "", fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, mtype.String())
	}
	return mtype.String(), mtype.Extension(), nil
}

func (s *awsS3) UploadFile(ctx context.Context, name string, data []byte, folder string, allowTypes ...string) (string, error) {
	contentType, ext, err := DetectFileType(data, allowTypes...)
	if err != nil {
		return "", err
	}

	objectKey := fmt.Sprintf("%s/%s%s", folder, name, ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectKey, err)
	}

	return objectKey, nil
}

func (s *awsS3) DeleteFile(ctx context.Context, objectKey string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	return err
}

func (s *awsS3) baseURL() string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/", s.endpoint, s.bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.bucket, s.region)
}

func (s *awsS3) GetPublicLinkKey(objectKey string) string {
	return s.baseURL() + objectKey
}

func (s *awsS3) GetObjectKeyFromLink(link string) string {
	base := s.baseURL()
	if !strings.HasPrefix(link, base) {
		return ""
	}
	return strings.TrimPrefix(link, base)
}
