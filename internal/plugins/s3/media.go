package s3

import (
	"bytes"
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"chatsync/internal/config"
)

// MediaStore uploads avatar/image/audio blobs to an S3 bucket and hands
// back the public URL the message log stores verbatim.
type MediaStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewMediaStore(ctx context.Context, cfg config.MediaConfig) (*MediaStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &MediaStore{
		client:    s3.NewFromConfig(awsCfg),
		bucket:    cfg.Bucket,
		publicURL: publicURL,
	}, nil
}

func (m *MediaStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &m.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("media upload failed: %w", err)
	}
	return m.publicURL + "/" + key, nil
}
