package blob

import (
	"context"
	"fmt"
	"io"
)

// Config selects and parameterises a backend.
type Config struct {
	Driver Driver
	FSRoot string // fs: directory root (default ./sarcdata)
	DSN    string // sqlite: file path; postgres, mysql: connection string
	S3     S3Config
	Redis  RedisConfig
}

// Open builds the Store named by cfg.Driver; the zero value yields the
// filesystem backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, DriverPostgres, DriverMySQL:
		return NewSQL(ctx, driver, cfg.DSN)
	case DriverRedis:
		return NewRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

// Close releases backend resources for stores that hold them.
func Close(store Store) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
