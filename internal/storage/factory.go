package storage

import (
	"context"
	"fmt"

	"github.com/HealthLane-PH/healthlane-web/internal/config"
)

const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// New builds the backend selected by cfg.Type. signingKey signs local URLs.
func New(ctx context.Context, cfg config.StorageConfig, signingKey []byte) (Storage, error) {
	switch cfg.Type {
	case TypeLocal, "":
		basePath := cfg.LocalPath
		if basePath == "" {
			basePath = "./uploads"
		}
		return NewLocalStorage(basePath, cfg.PublicBaseURL, signingKey)
	case TypeS3:
		return NewS3Storage(ctx, S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
