package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

// SessionStore persists the signed-in user between processes.
type SessionStore interface {
	LoadSession(ctx context.Context) (domain.User, bool, error)
	SaveSession(ctx context.Context, user domain.User) error
	ClearSession(ctx context.Context) error
}

// Session tracks the signed-in user and answers role checks.
type Session struct {
	mu      sync.RWMutex
	dir     *Directory
	store   SessionStore
	current *domain.User
}

// NewSession restores a persisted session. A stored user that no longer
// exists or has been deactivated is signed out.
func NewSession(ctx context.Context, dir *Directory, store SessionStore) (*Session, error) {
	s := &Session{dir: dir, store: store}
	if store == nil {
		return s, nil
	}
	stored, ok, err := store.LoadSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return s, nil
	}
	user, found := dir.Find(stored.ID)
	if !found || user.Status != domain.StatusActive {
		if err := store.ClearSession(ctx); err != nil {
			return nil, fmt.Errorf("clear stale session: %w", err)
		}
		return s, nil
	}
	user.PasswordHash = ""
	s.current = &user
	return s, nil
}

// Login authenticates and records the session.
func (s *Session) Login(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.dir.Authenticate(username, password)
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = ""
	if s.store != nil {
		if err := s.store.SaveSession(ctx, user); err != nil {
			return domain.User{}, fmt.Errorf("save session: %w", err)
		}
	}
	s.mu.Lock()
	s.current = &user
	s.mu.Unlock()
	return user, nil
}

// Logout forgets the signed-in user.
func (s *Session) Logout(ctx context.Context) error {
	if s.store != nil {
		if err := s.store.ClearSession(ctx); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return nil
}

// CurrentUser returns the signed-in user, if any.
func (s *Session) CurrentUser() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.User{}, false
	}
	return *s.current, true
}

// HasRole reports whether someone is signed in with role.
func (s *Session) HasRole(role domain.Role) bool {
	user, ok := s.CurrentUser()
	return ok && user.Role == role
}
