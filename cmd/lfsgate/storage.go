package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sagarc03/lfsgate"
	"github.com/sagarc03/lfsgate/config"
	"github.com/sagarc03/lfsgate/filesystem"
	"github.com/sagarc03/lfsgate/s3store"
)

// openStorage builds the configured object store. The returned func
// releases its resources.
func openStorage(ctx context.Context, cfg config.StorageConfig) (lfsgate.ObjectStorage, func(), error) {
	switch cfg.Type {
	case "s3":
		client, err := s3store.NewClient(ctx, cfg.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("create s3 client: %w", err)
		}
		return s3store.New(client, cfg.S3.Bucket, cfg.S3.Prefix), func() {}, nil

	case "filesystem":
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create storage directory: %w", err)
		}

		root, err := os.OpenRoot(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage root: %w", err)
		}
		return filesystem.NewFileStorage(root), func() { _ = root.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
