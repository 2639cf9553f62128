// Package state maps the domain collections, the user directory and the
// current session onto named blobs. Each collection is one JSON array so a
// load followed by a save reproduces the same bytes.
package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/blob"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/core"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

// Blob names.
const (
	KeyAdvisors = "advisors"
	KeyClients  = "clients"
	KeyRoutes   = "routes"
	KeySurveys  = "surveys"
	KeyUsers    = "users"
	KeySession  = "currentSession"
)

const contentTypeJSON = "application/json"

// Repository reads and writes persisted state through a blob.Store.
type Repository struct {
	store  blob.Store
	prefix string
	logger core.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithPrefix namespaces every blob key, e.g. "sarc/".
func WithPrefix(prefix string) Option {
	return func(r *Repository) { r.prefix = prefix }
}

// WithLogger routes load warnings to logger.
func WithLogger(logger core.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRepository wraps store.
func NewRepository(store blob.Store, opts ...Option) *Repository {
	r := &Repository{store: store, logger: core.NewNoopLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ core.Persister = (*Repository)(nil)

// Key returns the full blob key for name.
func (r *Repository) Key(name string) string { return r.prefix + name }

// LoadDomain reads the four collections. A collection whose blob is missing
// or unparseable starts empty; only backend failures are returned.
func (r *Repository) LoadDomain(ctx context.Context) (domain.Snapshot, error) {
	var (
		snap domain.Snapshot
		err  error
	)
	if snap.Advisors, err = loadCollection[domain.Advisor](ctx, r, KeyAdvisors); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Clients, err = loadCollection[domain.Client](ctx, r, KeyClients); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Routes, err = loadCollection[domain.Route](ctx, r, KeyRoutes); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Surveys, err = loadCollection[domain.Survey](ctx, r, KeySurveys); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

// SaveDomain overwrites all four collection blobs.
func (r *Repository) SaveDomain(ctx context.Context, snap domain.Snapshot) error {
	if err := r.put(ctx, KeyAdvisors, nonNil(snap.Advisors)); err != nil {
		return err
	}
	if err := r.put(ctx, KeyClients, nonNil(snap.Clients)); err != nil {
		return err
	}
	if err := r.put(ctx, KeyRoutes, nonNil(snap.Routes)); err != nil {
		return err
	}
	return r.put(ctx, KeySurveys, nonNil(snap.Surveys))
}

// LoadUsers reads the user directory; missing or unparseable yields nil.
func (r *Repository) LoadUsers(ctx context.Context) ([]domain.User, error) {
	return loadCollection[domain.User](ctx, r, KeyUsers)
}

// SaveUsers overwrites the user directory blob.
func (r *Repository) SaveUsers(ctx context.Context, users []domain.User) error {
	return r.put(ctx, KeyUsers, nonNil(users))
}

// LoadSession returns the logged-in user, if any.
func (r *Repository) LoadSession(ctx context.Context) (domain.User, bool, error) {
	raw, found, err := r.read(ctx, KeySession)
	if err != nil || !found {
		return domain.User{}, false, err
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == 0 {
		r.logger.Warn("discarding unreadable session", "key", r.Key(KeySession), "error", err)
		return domain.User{}, false, nil
	}
	return user, true, nil
}

// SaveSession records user as the current session.
func (r *Repository) SaveSession(ctx context.Context, user domain.User) error {
	return r.put(ctx, KeySession, user)
}

// ClearSession removes the current session blob.
func (r *Repository) ClearSession(ctx context.Context) error {
	if _, err := r.store.Delete(ctx, r.Key(KeySession)); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// loadCollection decodes one JSON array. A blob that fails to decode at any
// element yields nil, never the elements decoded before the failure.
func loadCollection[T any](ctx context.Context, r *Repository, name string) ([]T, error) {
	raw, found, err := r.read(ctx, name)
	if err != nil || !found {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		r.logger.Warn("discarding unparseable collection", "key", r.Key(name), "error", err)
		return nil, nil
	}
	return items, nil
}

func (r *Repository) read(ctx context.Context, name string) ([]byte, bool, error) {
	_, rc, err := r.store.Get(ctx, r.Key(name))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}
	return raw, true, nil
}

func (r *Repository) put(ctx context.Context, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if _, err := r.store.Put(ctx, r.Key(name), bytes.NewReader(raw), blob.PutOptions{ContentType: contentTypeJSON}); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
