// Package auth holds the user directory and the session gate. The domain
// store never consults it; callers check roles before invoking mutations.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInactiveUser is returned when the credentials match a deactivated account.
	ErrInactiveUser = errors.New("user is inactive")
)

// UserStore persists the directory as a whole.
type UserStore interface {
	LoadUsers(ctx context.Context) ([]domain.User, error)
	SaveUsers(ctx context.Context, users []domain.User) error
}

// RegisterInput is the account form.
type RegisterInput struct {
	Username        string
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Role            domain.Role
}

type seedUser struct {
	username, password, name, email string
	role                            domain.Role
}

var defaultUsers = []seedUser{
	{"admin", "admin123", "Administrador Principal", "admin@empresa.com", domain.RoleAdmin},
	{"supervisor", "super123", "Supervisor General", "supervisor@empresa.com", domain.RoleSupervisor},
	{"asesor1", "asesor123", "Carlos Méndez", "carlos@empresa.com", domain.RoleAdvisor},
}

// Directory is the set of accounts allowed to sign in.
type Directory struct {
	mu     sync.RWMutex
	users  []domain.User
	store  UserStore
	cost   int
	now    func() time.Time
	lastID int64
}

// Option configures a Directory.
type Option func(*Directory)

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(d *Directory) {
		if cost > 0 {
			d.cost = cost
		}
	}
}

// WithNow overrides the clock used for ids and registration timestamps.
func WithNow(now func() time.Time) Option {
	return func(d *Directory) {
		if now != nil {
			d.now = now
		}
	}
}

// OpenDirectory loads the accounts from store. An empty directory is seeded
// with the three default accounts and saved back.
func OpenDirectory(ctx context.Context, store UserStore, opts ...Option) (*Directory, error) {
	d := &Directory{store: store, cost: bcrypt.DefaultCost, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	if store != nil {
		users, err := store.LoadUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("load users: %w", err)
		}
		d.users = users
	}
	for _, u := range d.users {
		d.lastID = max(d.lastID, u.ID)
	}
	if len(d.users) > 0 {
		return d, nil
	}
	registered := d.now().UTC()
	for i, seed := range defaultUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.password), d.cost)
		if err != nil {
			return nil, fmt.Errorf("hash default password: %w", err)
		}
		d.users = append(d.users, domain.User{
			ID:           int64(i + 1),
			Username:     seed.username,
			PasswordHash: string(hash),
			Name:         seed.name,
			Email:        seed.email,
			Role:         seed.role,
			Status:       domain.StatusActive,
			RegisteredAt: registered,
		})
	}
	d.lastID = int64(len(defaultUsers))
	if err := d.save(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Users returns a copy of every account in registration order.
func (d *Directory) Users() []domain.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.users)
}

// Find returns the account with id.
func (d *Directory) Find(id int64) (domain.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i := d.indexOf(id)
	if i < 0 {
		return domain.User{}, false
	}
	return d.users[i], true
}

// FindByEmail looks an account up by email, as the password reset form does.
func (d *Directory) FindByEmail(email string) (domain.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	email = strings.TrimSpace(email)
	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return domain.User{}, false
}

// Register adds an active account.
func (d *Directory) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	switch {
	case in.Username == "":
		return domain.User{}, userInvalid("username", "required")
	case in.Name == "":
		return domain.User{}, userInvalid("name", "required")
	case in.Email != "" && !domain.ValidEmail(in.Email):
		return domain.User{}, userInvalid("email", "invalid email")
	case in.Password == "":
		return domain.User{}, userInvalid("password", "required")
	case in.Password != in.ConfirmPassword:
		return domain.User{}, userInvalid("password", "passwords do not match")
	case !in.Role.Valid():
		return domain.User{}, userInvalid("role", "must be admin, supervisor or asesor")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), d.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Username == in.Username {
			return domain.User{}, userInvalid("username", "username already exists")
		}
	}
	now := d.now().UTC()
	id := max(now.UnixMilli(), d.lastID+1)
	user := domain.User{
		ID:           id,
		Username:     in.Username,
		PasswordHash: string(hash),
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		Status:       domain.StatusActive,
		RegisteredAt: now,
	}
	prev := d.users
	d.users = append(slices.Clone(d.users), user)
	if err := d.save(ctx); err != nil {
		d.users = prev
		return domain.User{}, err
	}
	d.lastID = id
	return user, nil
}

// ToggleStatus flips an account between activo and inactivo.
func (d *Directory) ToggleStatus(ctx context.Context, id int64) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexOf(id)
	if i < 0 {
		return domain.User{}, domain.NotFoundError{Entity: domain.EntityUser, ID: id}
	}
	prev := d.users
	d.users = slices.Clone(d.users)
	if d.users[i].Status == domain.StatusActive {
		d.users[i].Status = domain.StatusInactive
	} else {
		d.users[i].Status = domain.StatusActive
	}
	if err := d.save(ctx); err != nil {
		d.users = prev
		return domain.User{}, err
	}
	return d.users[i], nil
}

// ResetPassword replaces the password of account id.
func (d *Directory) ResetPassword(ctx context.Context, id int64, password, confirm string) (domain.User, error) {
	switch {
	case password == "":
		return domain.User{}, userInvalid("password", "required")
	case password != confirm:
		return domain.User{}, userInvalid("password", "passwords do not match")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexOf(id)
	if i < 0 {
		return domain.User{}, domain.NotFoundError{Entity: domain.EntityUser, ID: id}
	}
	prev := d.users
	d.users = slices.Clone(d.users)
	d.users[i].PasswordHash = string(hash)
	if err := d.save(ctx); err != nil {
		d.users = prev
		return domain.User{}, err
	}
	return d.users[i], nil
}

// Delete removes an account. An actor cannot delete its own account.
func (d *Directory) Delete(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return domain.IntegrityViolation{Entity: domain.EntityUser, ID: id, Reason: "cannot delete the signed-in user"}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexOf(id)
	if i < 0 {
		return domain.NotFoundError{Entity: domain.EntityUser, ID: id}
	}
	prev := d.users
	d.users = slices.Delete(slices.Clone(d.users), i, i+1)
	if err := d.save(ctx); err != nil {
		d.users = prev
		return err
	}
	return nil
}

// Authenticate checks credentials. Inactive accounts are refused even with
// the right password.
func (d *Directory) Authenticate(username, password string) (domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	username = strings.TrimSpace(username)
	for _, u := range d.users {
		if u.Username != username {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			return domain.User{}, ErrInvalidCredentials
		}
		if u.Status != domain.StatusActive {
			return domain.User{}, ErrInactiveUser
		}
		return u, nil
	}
	return domain.User{}, ErrInvalidCredentials
}

func (d *Directory) indexOf(id int64) int {
	return slices.IndexFunc(d.users, func(u domain.User) bool { return u.ID == id })
}

func (d *Directory) save(ctx context.Context) error {
	if d.store == nil {
		return nil
	}
	if err := d.store.SaveUsers(ctx, d.users); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}

func userInvalid(field, reason string) error {
	return domain.ValidationError{Entity: domain.EntityUser, Field: field, Reason: reason}
}
