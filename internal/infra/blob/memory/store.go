// Package memory implements an in-memory blob Store for tests and
// ephemeral runs. Nothing survives the process.
package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/blob/core"
)

type entry struct {
	info core.Info
	data []byte
}

// snapshot returns a copy the caller may keep or mutate.
func (e entry) snapshot() core.Info {
	info := e.info
	info.Metadata = core.CloneMetadata(e.info.Metadata)
	return info
}

// Store implements core.Store backed by a map.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New returns an empty store.
func New() *Store { return &Store{entries: make(map[string]entry)} }

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put copies r into memory, replacing any value at key.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	if strings.TrimSpace(key) == "" {
		return core.Info{}, errors.New("empty key")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, fmt.Errorf("read %s: %w", key, err)
	}
	sum := sha256.Sum256(data)
	e := entry{
		data: data,
		info: core.Info{
			Key:          key,
			Size:         int64(len(data)),
			ContentType:  opts.ContentType,
			ETag:         hex.EncodeToString(sum[:]),
			Metadata:     core.CloneMetadata(opts.Metadata),
			LastModified: time.Now().UTC(),
		},
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return e.snapshot(), nil
}

func (s *Store) lookup(key string) (entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return entry{}, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	return e, nil
}

// Get returns a reader over a private copy of the value.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	e, err := s.lookup(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	return e.snapshot(), io.NopCloser(bytes.NewReader(bytes.Clone(e.data))), nil
}

// Head returns the stored attributes.
func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	e, err := s.lookup(key)
	if err != nil {
		return core.Info{}, err
	}
	return e.snapshot(), nil
}

// Delete reports whether key was present.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// List returns the keys under prefix in order.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Info
	for _, key := range slices.Sorted(maps.Keys(s.entries)) {
		if strings.HasPrefix(key, prefix) {
			out = append(out, s.entries[key].snapshot())
		}
	}
	return out, nil
}

// PresignURL is unsupported; memory blobs are not addressable.
func (s *Store) PresignURL(context.Context, string, core.SignedURLOptions) (string, error) {
	return "", core.ErrUnsupported
}
