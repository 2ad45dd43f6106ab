package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/chat-system/internal/core/domain"
)

// MaxImageSize caps a decoded upload.
const MaxImageSize = 10 << 20

// Config describes the S3 compatible bucket used for uploaded images.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PublicURL is the base objects are served from. Defaults to
	// Endpoint/Bucket.
	PublicURL string
}

func (c Config) publicBase() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	return strings.TrimRight(c.Endpoint, "/") + "/" + c.Bucket
}

// ObjectPutter is the subset of *s3.Client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds a client with static credentials. An empty Endpoint
// targets AWS itself; anything else (MinIO, R2) is used as the base
// endpoint with path-style addressing.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Uploader implements ports.MediaUploader on top of an S3 bucket.
type S3Uploader struct {
	client    ObjectPutter
	bucket    string
	publicURL string
	now       func() time.Time
	log       zerolog.Logger
}

func NewS3Uploader(client ObjectPutter, cfg Config, log zerolog.Logger) *S3Uploader {
	return &S3Uploader{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: cfg.publicBase(),
		now:       time.Now,
		log:       log,
	}
}

// Upload decodes payload (a data URL or bare base64), stores it under folder
// and returns its public URL.
func (u *S3Uploader) Upload(ctx context.Context, folder, payload string) (string, error) {
	data, err := decodePayload(payload)
	if err != nil {
		return "", err
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: unsupported media type %s", domain.ErrValidation, mt.String())
	}

	key := u.objectKey(folder, mt.Extension())
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(mt.String()),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		u.log.Error().Err(err).Str("key", key).Msg("media upload failed")
		return "", fmt.Errorf("%w: %w", domain.ErrMediaUpload, err)
	}

	return u.publicURL + "/" + key, nil
}

func (u *S3Uploader) objectKey(folder, ext string) string {
	return path.Join(folder, u.now().UTC().Format("2006/01"), uuid.NewString()+ext)
}

func decodePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return nil, fmt.Errorf("%w: malformed data url", domain.ErrValidation)
		}
		payload = payload[comma+1:]
	}
	if payload == "" {
		return nil, fmt.Errorf("%w: empty image", domain.ErrValidation)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize+2 {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrValidation, MaxImageSize)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 image", domain.ErrValidation)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrValidation, MaxImageSize)
	}
	return data, nil
}
