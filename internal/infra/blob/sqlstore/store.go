// Package sqlstore implements a blob Store on a single relational table. One
// implementation serves sqlite, postgres and mysql; only the dialect differs.
package sqlstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	_ "github.com/go-sql-driver/mysql" // register mysql as a database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/blob/core"
)

const defaultSQLitePath = "sarc.db"

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store implements core.Store over database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	owned   bool
}

// Open connects with the dialect's driver, verifies the connection and
// ensures the blob table exists. For sqlite the DSN is a file path.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	if dialect.Driver == core.DriverSQLite {
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create dirs: %w", err)
			}
		}
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn required", dialect.Driver)
	}
	openMu.Lock()
	db, err := sqlOpen(dialect.SQLDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Driver, err)
	}
	if dialect.Driver == core.DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Driver, err)
	}
	s, err := New(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New wraps an existing connection pool. The caller keeps ownership of db.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	if _, err := db.ExecContext(ctx, dialect.createDDL); err != nil {
		return nil, fmt.Errorf("ensure blob table: %w", err)
	}
	return &Store{db: db, dialect: dialect}, nil
}

// Close releases the pool when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return s.dialect.Driver }

// Put upserts the blob row.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	if strings.TrimSpace(key) == "" {
		return core.Info{}, fmt.Errorf("empty key")
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	meta, err := encodeMetadata(opts.Metadata)
	if err != nil {
		return core.Info{}, err
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
	if _, err := s.db.ExecContext(ctx, s.dialect.upsertSQL(),
		key, payload, opts.ContentType, meta, info.ETag, now.UnixNano()); err != nil {
		return core.Info{}, fmt.Errorf("upsert blob %s: %w", key, err)
	}
	return info, nil
}

// Get loads the payload into memory and returns a reader over it.
func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.selectSQL(true), key)
	var payload []byte
	info, err := scanInfo(row, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Info{}, nil, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return core.Info{}, nil, err
	}
	return info, io.NopCloser(bytes.NewReader(payload)), nil
}

// Head returns metadata only.
func (s *Store) Head(ctx context.Context, key string) (core.Info, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.selectSQL(false), key)
	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Info{}, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	return info, err
}

// Delete removes the row, reporting whether one existed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.deleteSQL(), key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns rows whose key starts with prefix, ordered by key.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if prefix == "" {
		rows, err = s.db.QueryContext(ctx, s.dialect.listSQL(false))
	} else {
		rows, err = s.db.QueryContext(ctx, s.dialect.listSQL(true), utf8.RuneCountInString(prefix), prefix)
	}
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var infos []core.Info
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blobs: %w", err)
	}
	return infos, nil
}

// PresignURL is not available for table storage.
func (s *Store) PresignURL(context.Context, string, core.SignedURLOptions) (string, error) {
	return "", core.ErrUnsupported
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner, payload ...*[]byte) (core.Info, error) {
	var (
		info    core.Info
		meta    string
		updated int64
	)
	dest := []any{&info.Key, &info.ContentType, &meta, &info.ETag, &updated, &info.Size}
	for _, p := range payload {
		dest = append(dest, p)
	}
	if err := row.Scan(dest...); err != nil {
		return core.Info{}, err
	}
	md, err := decodeMetadata(meta)
	if err != nil {
		return core.Info{}, fmt.Errorf("decode metadata for %s: %w", info.Key, err)
	}
	info.Metadata = md
	info.LastModified = time.Unix(0, updated).UTC()
	return info, nil
}

func encodeMetadata(md map[string]string) (string, error) {
	if len(md) == 0 {
		return "", nil
	}
	b, err := json.Marshal(md)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMetadata(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	var md map[string]string
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return nil, err
	}
	return md, nil
}
