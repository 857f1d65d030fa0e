// Package blob selects and re-exports the blob storage backend used for
// plant photos. Concrete implementations live under internal/infra/blob.
package blob

import (
	"context"
	"fmt"
	"os"

	"plantcore/internal/blob/core"
	"plantcore/internal/infra/blob/fs"
	"plantcore/internal/infra/blob/memory"
	"plantcore/internal/infra/blob/s3"
)

// Re-exported types so callers depend on a single package.
type (
	Driver           = core.Driver
	Store            = core.Store
	Info             = core.Info
	PutOptions       = core.PutOptions
	SignedURLOptions = core.SignedURLOptions
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

// ErrUnsupported mirrors core.ErrUnsupported.
var ErrUnsupported = core.ErrUnsupported

// NewMemory returns the in-memory store used by tests and as a safe default.
func NewMemory() Store { return memory.New() }

// NewFilesystem returns a filesystem store rooted at root.
func NewFilesystem(root string) (Store, error) { return fs.New(root) }

// Open selects a blob.Store implementation using environment variables.
//
//	PLANTCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	PLANTCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./imagedata)
//	(S3 specific variables documented in internal/infra/blob/s3)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("PLANTCORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		root := os.Getenv("PLANTCORE_BLOB_FS_ROOT")
		return fs.New(root)
	case DriverS3:
		return s3.OpenFromEnv(ctx)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
