package kv

import (
	"context"
	"fmt"
	"io"

	"storefront/internal/config"
)

// Open selects a Store implementation from the storage configuration.
//
//	driver: memory|fs|sqlite|postgres|s3 (default fs)
//	fs_root, sqlite_path, postgres_dsn and s3.* parameterise the backends.
func Open(ctx context.Context, cfg config.Storage) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = string(DriverFS)
	}
	switch Driver(driver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFS:
		return NewFilesystem(cfg.FSRoot)
	case DriverSQLite:
		return NewSQLite(cfg.SQLitePath)
	case DriverPostgres:
		return NewPostgres(ctx, cfg.PostgresDSN)
	case DriverS3:
		return NewS3(ctx, S3Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			SessionToken:    cfg.S3.SessionToken,
			PathStyle:       cfg.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown kv driver %s", driver)
	}
}

// Close releases s when the backend holds resources. Other stores are left alone.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
