// Package redis implements a blob Store on Redis. Each blob is a string value
// with a companion hash for its metadata; a sorted set indexes the keys so
// List does not need SCAN.
package redis

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/blob/core"
)

const defaultNamespace = "sarc:blob"

// Config holds connection parameters.
type Config struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
}

// Store implements core.Store over a go-redis client.
type Store struct {
	client goredis.UniversalClient
	ns     string
}

// Open dials Redis and verifies the connection with a short ping.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(client, cfg.Namespace), nil
}

// New wraps an existing client.
func New(client goredis.UniversalClient, namespace string) *Store {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &Store{client: client, ns: namespace}
}

// Close closes the client.
func (s *Store) Close() error { return s.client.Close() }

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverRedis }

func (s *Store) dataKey(key string) string { return s.ns + ":data:" + key }
func (s *Store) metaKey(key string) string { return s.ns + ":meta:" + key }
func (s *Store) indexKey() string          { return s.ns + ":index" }

// Put writes value, metadata and index entry in one MULTI block.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	if strings.TrimSpace(key) == "" {
		return core.Info{}, fmt.Errorf("empty key")
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	var meta string
	if len(opts.Metadata) > 0 {
		b, err := json.Marshal(opts.Metadata)
		if err != nil {
			return core.Info{}, err
		}
		meta = string(b)
	}
	sum := sha256.Sum256(payload)
	now := time.Now().UTC()
	info := core.Info{
		Key:          key,
		Size:         int64(len(payload)),
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(sum[:]),
		Metadata:     core.CloneMetadata(opts.Metadata),
		LastModified: now,
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.dataKey(key), payload, 0)
		pipe.Del(ctx, s.metaKey(key))
		pipe.HSet(ctx, s.metaKey(key),
			"content_type", opts.ContentType,
			"metadata", meta,
			"etag", info.ETag,
			"size", info.Size,
			"updated_at", now.UnixNano(),
		)
		pipe.ZAdd(ctx, s.indexKey(), goredis.Z{Score: 0, Member: key})
		return nil
	})
	if err != nil {
		return core.Info{}, fmt.Errorf("put blob %s: %w", key, err)
	}
	return info, nil
}

// Get returns the value and its metadata.
func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	payload, err := s.client.Get(ctx, s.dataKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return core.Info{}, nil, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return core.Info{}, nil, err
	}
	info, err := s.Head(ctx, key)
	if err != nil {
		return core.Info{}, nil, err
	}
	return info, io.NopCloser(bytes.NewReader(payload)), nil
}

// Head reads the metadata hash.
func (s *Store) Head(ctx context.Context, key string) (core.Info, error) {
	fields, err := s.client.HGetAll(ctx, s.metaKey(key)).Result()
	if err != nil {
		return core.Info{}, err
	}
	if len(fields) == 0 {
		return core.Info{}, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	return infoFromHash(key, fields)
}

// Delete removes value, metadata and index entry.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	var removed *goredis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		removed = pipe.Del(ctx, s.dataKey(key))
		pipe.Del(ctx, s.metaKey(key))
		pipe.ZRem(ctx, s.indexKey(), key)
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed.Val() > 0, nil
}

// List walks the lexicographic index from prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	lo, hi := "-", "+"
	if prefix != "" {
		lo = "[" + prefix
		hi = "[" + prefix + "\xff"
	}
	keys, err := s.client.ZRangeByLex(ctx, s.indexKey(), &goredis.ZRangeBy{Min: lo, Max: hi}).Result()
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	infos := make([]core.Info, 0, len(keys))
	for _, key := range keys {
		info, err := s.Head(ctx, key)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// PresignURL is not available for Redis.
func (s *Store) PresignURL(context.Context, string, core.SignedURLOptions) (string, error) {
	return "", core.ErrUnsupported
}

func infoFromHash(key string, fields map[string]string) (core.Info, error) {
	info := core.Info{
		Key:         key,
		ContentType: fields["content_type"],
		ETag:        fields["etag"],
	}
	if raw := fields["size"]; raw != "" {
		size, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return core.Info{}, fmt.Errorf("parse size for %s: %w", key, err)
		}
		info.Size = size
	}
	if raw := fields["updated_at"]; raw != "" {
		nanos, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return core.Info{}, fmt.Errorf("parse updated_at for %s: %w", key, err)
		}
		info.LastModified = time.Unix(0, nanos).UTC()
	}
	if raw := fields["metadata"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &info.Metadata); err != nil {
			return core.Info{}, fmt.Errorf("decode metadata for %s: %w", key, err)
		}
	}
	return info, nil
}
