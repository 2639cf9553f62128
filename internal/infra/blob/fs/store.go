// Package fs implements a blob Store on a local directory. Each key maps to a
// file under the root with a `.meta` JSON sidecar holding content type,
// metadata and the sha256 etag.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/blob/core"
)

const (
	defaultRoot = "./sarcdata"
	metaSuffix  = ".meta"
	tempPattern = ".tmp-*"
)

var errBadKey = errors.New("invalid blob key")

// Store implements core.Store using the local filesystem.
type Store struct {
	root string
}

// New returns a filesystem-backed blob store rooted at root, creating it if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = defaultRoot
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: root}, nil
}

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// Root returns the directory the store writes under.
func (s *Store) Root() string { return s.root }

// object locates one key on disk.
type object struct {
	key  string
	data string
	meta string
}

// locate maps key to its data and sidecar paths. Keys stay relative to the
// root and may not collide with sidecar names.
func (s *Store) locate(key string) (object, error) {
	switch {
	case strings.TrimSpace(key) == "":
		return object{}, fmt.Errorf("%w: empty", errBadKey)
	case strings.HasPrefix(key, "/"):
		return object{}, fmt.Errorf("%w %q: absolute", errBadKey, key)
	case strings.HasSuffix(key, metaSuffix):
		return object{}, fmt.Errorf("%w %q: reserved suffix %s", errBadKey, key, metaSuffix)
	}
	clean := path.Clean(filepath.ToSlash(key))
	if !filepath.IsLocal(filepath.FromSlash(clean)) || strings.Contains(key, "..") {
		return object{}, fmt.Errorf("%w %q: escapes root", errBadKey, key)
	}
	data := filepath.Join(s.root, filepath.FromSlash(clean))
	return object{key: key, data: data, meta: data + metaSuffix}, nil
}

type metaFile struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (m metaFile) info(key string) core.Info {
	return core.Info{
		Key:          key,
		Size:         m.Size,
		ContentType:  m.ContentType,
		ETag:         m.ETag,
		Metadata:     core.CloneMetadata(m.Metadata),
		LastModified: m.UpdatedAt,
		URL:          localURL(key),
	}
}

// Put replaces the blob atomically: content goes to a temp file in the
// target directory and is renamed into place once synced.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	obj, err := s.locate(key)
	if err != nil {
		return core.Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(obj.data), 0o755); err != nil {
		return core.Info{}, err
	}
	etag, size, err := writeAtomic(obj.data, r)
	if err != nil {
		return core.Info{}, fmt.Errorf("write blob %s: %w", key, err)
	}

	now := time.Now().UTC()
	meta := metaFile{
		ContentType: opts.ContentType,
		Metadata:    core.CloneMetadata(opts.Metadata),
		ETag:        etag,
		Size:        size,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if prev, err := readMeta(obj.meta); err == nil {
		meta.CreatedAt = prev.CreatedAt
	}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return core.Info{}, err
	}
	if err := os.WriteFile(obj.meta, raw, 0o644); err != nil {
		return core.Info{}, fmt.Errorf("write sidecar %s: %w", key, err)
	}
	return meta.info(key), nil
}

func writeAtomic(dst string, r io.Reader) (etag string, size int64, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), tempPattern)
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	sum := sha256.New()
	if size, err = io.Copy(io.MultiWriter(tmp, sum), r); err != nil {
		return "", 0, err
	}
	if err = tmp.Sync(); err != nil {
		return "", 0, err
	}
	if err = tmp.Close(); err != nil {
		return "", 0, err
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(sum.Sum(nil)), size, nil
}

// Get opens the blob for reading. The caller closes the reader.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	obj, err := s.locate(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	f, err := os.Open(obj.data)
	if err != nil {
		return core.Info{}, nil, notFound(key, err)
	}
	meta, err := readMeta(obj.meta)
	if err != nil {
		_ = f.Close()
		return core.Info{}, nil, notFound(key, err)
	}
	return meta.info(key), f, nil
}

// Head reads the sidecar only.
func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	obj, err := s.locate(key)
	if err != nil {
		return core.Info{}, err
	}
	meta, err := readMeta(obj.meta)
	if err != nil {
		return core.Info{}, notFound(key, err)
	}
	return meta.info(key), nil
}

// Delete removes the blob and its sidecar. A missing key reports false.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	obj, err := s.locate(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(obj.data); err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := os.Remove(obj.meta); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return true, err
	}
	return true, nil
}

// List returns every key under prefix in key order.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	walk := func(p string, d iofs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, metaSuffix) {
			return err
		}
		rel, err := filepath.Rel(s.root, strings.TrimSuffix(p, metaSuffix))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		meta, err := readMeta(p)
		if err != nil {
			return fmt.Errorf("sidecar %s: %w", key, err)
		}
		infos = append(infos, meta.info(key))
		return nil
	}
	if err := filepath.WalkDir(s.root, walk); err != nil {
		return nil, err
	}
	slices.SortFunc(infos, func(a, b core.Info) int { return strings.Compare(a.Key, b.Key) })
	return infos, nil
}

// PresignURL returns a stable pseudo URL for reads. Local files carry no
// credentials so only GET is meaningful.
func (s *Store) PresignURL(_ context.Context, key string, opts core.SignedURLOptions) (string, error) {
	if opts.Method != "" && !strings.EqualFold(opts.Method, "GET") {
		return "", core.ErrUnsupported
	}
	return localURL(key), nil
}

func localURL(key string) string {
	return (&url.URL{Scheme: "http", Host: "local.blob", Path: "/" + key}).String()
}

func notFound(key string, err error) error {
	if errors.Is(err, iofs.ErrNotExist) {
		return fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	return err
}

func readMeta(p string) (metaFile, error) {
	raw, err := os.ReadFile(p) // #nosec G304 -- path derived from locate
	if err != nil {
		return metaFile{}, err
	}
	var meta metaFile
	if err := json.Unmarshal(raw, &meta); err != nil {
		return metaFile{}, err
	}
	return meta, nil
}
