package source

import (
	"fmt"

	"photopull/internal/config"
	"photopull/internal/pull"
)

// NewSourceFromConfig creates an AssetSource implementation based on the
// source config type.
func NewSourceFromConfig(cfg config.SourceConfig) (pull.AssetSource, error) {
	switch cfg.Type {
	case "memory":
		return NewMemorySource(), nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 source requires s3_bucket to be set")
		}
		return NewS3Source(cfg)
	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Type)
	}
}
