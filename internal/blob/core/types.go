// Package core defines the blob contract every SARC storage backend
// implements. The state repository keeps one JSON document per collection
// under a key, so the contract is deliberately small.
package core

import (
	"context"
	"errors"
	"io"
	"maps"
	"time"
)

// Driver names a backend; it is the value of SARC_BLOB_DRIVER.
type Driver string

// Known drivers. fs is the default.
const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
	DriverSQLite     Driver = "sqlite"
	DriverPostgres   Driver = "postgres"
	DriverMySQL      Driver = "mysql"
	DriverRedis      Driver = "redis"
)

// PutOptions carries optional attributes stored with a blob.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// SignedURLOptions configures PresignURL. Backends only sign GET; a zero
// Expiry means the backend default.
type SignedURLOptions struct {
	Method  string
	Expiry  time.Duration
	Headers map[string]string
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store provides a thin S3-like abstraction keyed by name. Put replaces any
// existing blob at key; Get and Head wrap ErrNotFound for a missing key;
// Delete reports (false, nil) for a missing key; List is ordered by key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

var (
	// ErrUnsupported reports a capability the backend lacks, such as
	// presigning on the memory driver.
	ErrUnsupported = errors.New("blob: unsupported operation")
	// ErrNotFound is wrapped by Get and Head for a missing key.
	ErrNotFound = errors.New("blob: not found")
)

// CloneMetadata copies a metadata map; nil stays nil.
func CloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	return maps.Clone(in)
}
