// Package kv is the persistence adapter used by the storefront stores. It
// re-exports the core abstraction and wraps the concrete infra backends so
// callers never import internal/infra/kv directly.
package kv

import (
	"context"

	"storefront/internal/infra/kv/fs"
	"storefront/internal/infra/kv/memory"
	"storefront/internal/infra/kv/postgres"
	"storefront/internal/infra/kv/s3"
	"storefront/internal/infra/kv/sqlite"
	"storefront/internal/kv/core"
)

type (
	Store  = core.Store
	Driver = core.Driver
)

const (
	DriverMemory   = core.DriverMemory
	DriverFS       = core.DriverFS
	DriverSQLite   = core.DriverSQLite
	DriverPostgres = core.DriverPostgres
	DriverS3       = core.DriverS3
)

var (
	ErrNotFound    = core.ErrNotFound
	ErrUnsupported = core.ErrUnsupported
	ErrEmptyKey    = core.ErrEmptyKey
)

// NewMemory returns a process-local store.
func NewMemory() Store { return memory.New() }

// NewFilesystem returns a store rooted at dir, creating it if needed.
func NewFilesystem(dir string) (Store, error) { return fs.New(dir) }

// NewSQLite opens (and migrates) an embedded sqlite database at path.
func NewSQLite(path string) (Store, error) { return sqlite.New(path) }

// NewPostgres connects to the server at dsn and ensures the kv table.
func NewPostgres(ctx context.Context, dsn string) (Store, error) { return postgres.New(ctx, dsn) }

// S3Config mirrors the s3 backend construction parameters.
type S3Config = s3.Config

// NewS3 returns a bucket-backed store.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) { return s3.New(ctx, cfg) }

// NewMockS3ForTests returns an S3 store wired to an in-process HTTP fake.
func NewMockS3ForTests() Store { return s3.NewMockForTests() }
